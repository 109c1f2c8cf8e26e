package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/notify"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppointmentDetails is an appointment with both parties expanded.
type AppointmentDetails struct {
	*appointment.Appointment
	Patient domain.Contact
	Doctor  domain.Contact
}

type AppointmentService struct {
	repo       appointment.Repository
	users      UserRepository
	doctors    doctor.Repository
	payments   payment.Repository
	dispatcher notify.Dispatcher
	auditor    Auditor
	metrics    *metrics.Collector
	log        *zap.Logger
	now        func() time.Time
}

func NewAppointmentService(
	repo appointment.Repository,
	users UserRepository,
	doctors doctor.Repository,
	payments payment.Repository,
	dispatcher notify.Dispatcher,
	auditor Auditor,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:       repo,
		users:      users,
		doctors:    doctors,
		payments:   payments,
		dispatcher: dispatcher,
		auditor:    auditor,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

func (s *AppointmentService) Schedule(
	ctx context.Context,
	p *access.Principal,
	cmd *appointment.CreateAppointmentCommand,
	ip string,
) (*AppointmentDetails, error) {
	if err := access.Require(p, access.ResourceAppointment, access.ActionCreate); err != nil {
		return nil, err
	}

	var v validation
	v.add(cmd.PatientID == uuid.Nil, "patientId is required")
	v.add(cmd.DoctorID == uuid.Nil, "doctorId is required")
	v.add(cmd.Date.IsZero(), "date is required")
	if err := v.err(); err != nil {
		return nil, err
	}
	cmd.Date = cmd.Date.UTC()

	if cmd.Duration == 0 {
		cmd.Duration = appointment.DefaultDuration
	}
	if cmd.Type == "" {
		cmd.Type = appointment.TypeInPerson
	}
	if cmd.StartTime == "" {
		cmd.StartTime = cmd.Date.UTC().Format("15:04")
	}
	if !cmd.Type.IsValid() {
		return nil, appointment.ErrInvalidAppointmentType
	}

	// Patients book for themselves; admins for anyone.
	if err := access.RequireOwner(p, access.ResourceAppointment, access.ActionCreate, cmd.PatientID); err != nil {
		return nil, err
	}

	parties, err := s.users.GetByIDs(ctx, []uuid.UUID{cmd.PatientID, cmd.DoctorID})
	if err != nil {
		return nil, fmt.Errorf("loading participants: %w", err)
	}
	pat, doc := parties[cmd.PatientID], parties[cmd.DoctorID]
	v.add(pat == nil || pat.Role != access.RolePatient, "patientId must reference a patient")
	v.add(doc == nil || doc.Role != access.RoleDoctor, "doctorId must reference a doctor")
	if err := v.err(); err != nil {
		return nil, err
	}

	profile, err := s.doctors.GetByUserID(ctx, cmd.DoctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrProfileNotFound) {
			return nil, appointment.ErrDoctorUnavailable
		}
		return nil, fmt.Errorf("loading doctor profile: %w", err)
	}
	if !profile.IsAcceptingPatients {
		return nil, appointment.ErrDoctorUnavailable
	}

	a := &appointment.Appointment{
		PatientID:   cmd.PatientID,
		DoctorID:    cmd.DoctorID,
		Type:        cmd.Type,
		Status:      appointment.StatusBooked,
		Reason:      cmd.Reason,
		Symptoms:    cmd.Symptoms,
		Notes:       cmd.Notes,
		MeetingLink: cmd.MeetingLink,
		CreatedBy:   p.UserID,
	}
	if err := a.Reschedule(cmd.Date, cmd.StartTime, cmd.Duration); err != nil {
		return nil, err
	}

	if err := s.checkConflict(ctx, a, nil); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, err
	}

	s.countStatus(a.Status)
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionCreate, access.ResourceAppointment, a.ID, ip))

	if profile.ConsultationFee > 0 {
		s.openPayment(ctx, a, profile.ConsultationFee)
	}

	details := &AppointmentDetails{Appointment: a, Patient: pat.Contact(), Doctor: doc.Contact()}
	s.dispatch(ctx, notify.KindConfirmation, details)
	return details, nil
}

// openPayment records the consultation fee as a pending payment. The booking
// stands even if this fails.
func (s *AppointmentService) openPayment(ctx context.Context, a *appointment.Appointment, fee int64) {
	pay := &payment.Payment{
		UserID:          a.PatientID,
		DoctorID:        a.DoctorID,
		AppointmentID:   a.ID,
		Amount:          fee,
		Currency:        "USD",
		Status:          payment.StatusPending,
		TransactionDate: s.now().UTC(),
	}
	if err := s.payments.Create(ctx, pay); err != nil {
		s.log.Error("failed to open payment for appointment",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.countPayment(pay.Status)
}

func (s *AppointmentService) Get(ctx context.Context, p *access.Principal, id uuid.UUID, ip string) (*AppointmentDetails, error) {
	if err := access.Require(p, access.ResourceAppointment, access.ActionRead); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceAppointment, access.ActionRead, a.PatientID, a.DoctorID); err != nil {
		return nil, err
	}

	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionRead, access.ResourceAppointment, a.ID, ip))
	return s.expand(ctx, a)
}

func (s *AppointmentService) Update(
	ctx context.Context,
	p *access.Principal,
	id uuid.UUID,
	cmd *appointment.UpdateAppointmentCommand,
	ip string,
) (*AppointmentDetails, error) {
	if err := access.Require(p, access.ResourceAppointment, access.ActionUpdate); err != nil {
		return nil, err
	}
	fields := cmd.Fields()
	if len(fields) == 0 {
		return nil, invalid("at least one field must be provided")
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceAppointment, access.ActionUpdate, a.PatientID, a.DoctorID); err != nil {
		return nil, err
	}
	if err := access.RequireFields(p, access.ResourceAppointment, fields); err != nil {
		return nil, err
	}

	if cmd.Type != nil && !cmd.Type.IsValid() {
		return nil, appointment.ErrInvalidAppointmentType
	}

	if cmd.Reschedules() {
		if a.Status.IsTerminal() {
			return nil, appointment.ErrInvalidStatusTransition
		}
		date, start, duration := a.Date, a.StartTime, a.Duration
		if cmd.Date != nil {
			date = cmd.Date.UTC()
		}
		if cmd.StartTime != nil {
			start = *cmd.StartTime
		}
		if cmd.Duration != nil {
			duration = *cmd.Duration
		}
		if err := a.Reschedule(date, start, duration); err != nil {
			return nil, err
		}
		if err := s.checkConflict(ctx, a, &a.ID); err != nil {
			return nil, err
		}
	}

	cancelled := false
	if cmd.Status != nil && *cmd.Status != a.Status {
		if *cmd.Status == appointment.StatusCancelled {
			reason := ""
			if cmd.CancellationReason != nil {
				reason = *cmd.CancellationReason
			}
			if err := a.Cancel(reason, p.UserID); err != nil {
				return nil, err
			}
			cancelled = true
		} else if err := a.TransitionTo(*cmd.Status); err != nil {
			return nil, err
		}
	}
	if cmd.CancellationReason != nil && !cancelled {
		a.CancellationReason = *cmd.CancellationReason
	}
	if cmd.Type != nil {
		a.Type = *cmd.Type
	}
	if cmd.Notes != nil {
		a.Notes = *cmd.Notes
	}
	if cmd.MeetingLink != nil {
		a.MeetingLink = *cmd.MeetingLink
	}
	if cmd.Reason != nil {
		a.Reason = *cmd.Reason
	}
	if cmd.Symptoms != nil {
		a.Symptoms = *cmd.Symptoms
	}

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	if cmd.Status != nil {
		s.countStatus(a.Status)
	}

	entry := auditEntry(p, domain.ActionUpdate, access.ResourceAppointment, a.ID, ip)
	entry.Changes = changedFields(fields)
	s.auditor.LogAsync(ctx, entry)

	details, err := s.expand(ctx, a)
	if err != nil {
		return nil, err
	}
	switch {
	case cancelled:
		s.dispatch(ctx, notify.KindCancellation, details)
	case cmd.Reschedules():
		s.dispatch(ctx, notify.KindConfirmation, details)
	}
	return details, nil
}

// Cancel is a soft delete: the row stays with status CANCELLED.
func (s *AppointmentService) Cancel(ctx context.Context, p *access.Principal, id uuid.UUID, reason, ip string) (*AppointmentDetails, error) {
	if err := access.Require(p, access.ResourceAppointment, access.ActionDelete); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(p, access.ResourceAppointment, access.ActionDelete, a.PatientID); err != nil {
		return nil, err
	}
	if err := a.Cancel(reason, p.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}

	s.countStatus(a.Status)
	s.auditor.LogAsync(ctx, auditEntry(p, domain.ActionDelete, access.ResourceAppointment, a.ID, ip))

	details, err := s.expand(ctx, a)
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, notify.KindCancellation, details)
	return details, nil
}

func (s *AppointmentService) List(ctx context.Context, p *access.Principal, q *appointment.ListAppointmentsQuery) (*Page[AppointmentDetails], error) {
	if err := access.Require(p, access.ResourceAppointment, access.ActionRead); err != nil {
		return nil, err
	}
	if access.Scope(p, access.ResourceAppointment) == access.ScopeOwn {
		self := p.UserID
		if p.Role == access.RoleDoctor {
			q.DoctorID, q.PatientID = &self, nil
		} else {
			q.PatientID, q.DoctorID = &self, nil
		}
	}
	if q.Upcoming && q.DateFrom == nil {
		today := appointment.DateOnly(s.now().UTC())
		q.DateFrom = &today
	}

	res, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, 2*len(res.Appointments))
	for _, a := range res.Appointments {
		ids = append(ids, a.PatientID, a.DoctorID)
	}
	people, err := contacts(ctx, s.users, ids...)
	if err != nil {
		return nil, err
	}

	items := make([]AppointmentDetails, 0, len(res.Appointments))
	for _, a := range res.Appointments {
		items = append(items, AppointmentDetails{Appointment: a, Patient: people[a.PatientID], Doctor: people[a.DoctorID]})
	}
	return &Page[AppointmentDetails]{
		Items:      items,
		TotalCount: res.TotalCount,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}, nil
}

// checkConflict rejects a slot overlapping another live appointment of the
// same doctor, including slots on the neighbouring dates that cross
// midnight. Two concurrent bookings can still both pass.
func (s *AppointmentService) checkConflict(ctx context.Context, a *appointment.Appointment, exclude *uuid.UUID) error {
	booked, err := s.repo.ListForDoctorBetween(ctx, a.DoctorID, a.Date.AddDate(0, 0, -1), a.Date.AddDate(0, 0, 1), exclude)
	if err != nil {
		return err
	}
	for _, other := range booked {
		if a.Overlaps(other) {
			return appointment.ErrAppointmentConflict
		}
	}
	return nil
}

func (s *AppointmentService) expand(ctx context.Context, a *appointment.Appointment) (*AppointmentDetails, error) {
	people, err := contacts(ctx, s.users, a.PatientID, a.DoctorID)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetails{Appointment: a, Patient: people[a.PatientID], Doctor: people[a.DoctorID]}, nil
}

func (s *AppointmentService) dispatch(ctx context.Context, kind notify.Kind, d *AppointmentDetails) {
	s.dispatcher.Dispatch(context.WithoutCancel(ctx), notify.NewNotice(kind, d.Appointment, d.Patient, d.Doctor))
}

func (s *AppointmentService) countStatus(status appointment.AppointmentStatus) {
	if s.metrics != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(status)).Inc()
	}
}

func (s *AppointmentService) countPayment(status payment.PaymentStatus) {
	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues(string(status)).Inc()
	}
}
