package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payments are opened by the appointment service when a booking carries a
// consultation fee. There is no public create.
type PaymentService struct {
	repo    payment.Repository
	auditor Auditor
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

func NewPaymentService(repo payment.Repository, auditor Auditor, m *metrics.Collector, log *zap.Logger) *PaymentService {
	return &PaymentService{repo: repo, auditor: auditor, metrics: m, log: log, now: time.Now}
}

func (s *PaymentService) Get(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) (*payment.Payment, error) {
	if err := access.Require(p, access.ResourcePayment, access.ActionRead); err != nil {
		return nil, err
	}
	pay, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourcePayment, access.ActionRead, pay.UserID, pay.DoctorID); err != nil {
		return nil, err
	}
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionRead, access.ResourcePayment, pay.ID, ip))
	return pay, nil
}

func (s *PaymentService) List(ctx context.Context, p *access.Principal, q *payment.ListPaymentsQuery) (*payment.PagedPayments, error) {
	if err := access.Require(p, access.ResourcePayment, access.ActionRead); err != nil {
		return nil, err
	}
	if access.Scope(p, access.ResourcePayment) == access.ScopeOwn {
		self := p.UserID
		if p.Role == access.RoleDoctor {
			q.DoctorID, q.UserID = &self, nil
		} else {
			q.UserID, q.DoctorID = &self, nil
		}
	}
	return s.repo.List(ctx, q)
}

func (s *PaymentService) UpdateStatus(ctx context.Context, p *access.Principal, id uuid.UUID, cmd *payment.UpdatePaymentCommand, ip string) (*payment.Payment, error) {
	if err := access.Require(p, access.ResourcePayment, access.ActionUpdate); err != nil {
		return nil, err
	}
	if !cmd.Status.IsValid() {
		return nil, invalid("status must be one of PENDING, COMPLETED, FAILED, REFUNDED")
	}

	pay, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := pay.Status
	if err := pay.Settle(cmd.Status, cmd.ProviderReference, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, pay); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues(string(pay.Status)).Inc()
	}
	entry := auditEntry(p, domain.ActionUpdate, access.ResourcePayment, pay.ID, ip)
	entry.Changes = fmt.Sprintf(`{"status":{"from":%q,"to":%q}}`, from, pay.Status)
	s.auditor.LogAsync(ctx, entry)

	s.log.Info("payment status changed",
		zap.String("payment_id", pay.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(pay.Status)),
	)
	return pay, nil
}
