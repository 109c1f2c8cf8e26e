package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if err := conn(ctx, r.db).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return payment.ErrPaymentExists
		}
		return fmt.Errorf("creating payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PaymentRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*payment.Payment, error) {
	return r.first(ctx, "appointment_id = ?", appointmentID)
}

func (r *PaymentRepository) first(ctx context.Context, where string, arg any) (*payment.Payment, error) {
	var p payment.Payment
	if err := conn(ctx, r.db).First(&p, where, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("getting payment: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if err := conn(ctx, r.db).Save(p).Error; err != nil {
		return fmt.Errorf("saving payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) List(ctx context.Context, q *payment.ListPaymentsQuery) (*payment.PagedPayments, error) {
	p := newPage(q.Page, q.PageSize)
	db := conn(ctx, r.db).Model(&payment.Payment{})

	if q.UserID != nil {
		db = db.Where("user_id = ?", *q.UserID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}

	var items []*payment.Payment
	total, err := paginate(db, p, "transaction_date DESC", &items)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	return &payment.PagedPayments{
		Payments:   items,
		TotalCount: total,
		Page:       p.number,
		PageSize:   p.size,
		TotalPages: p.totalPages(total),
	}, nil
}
