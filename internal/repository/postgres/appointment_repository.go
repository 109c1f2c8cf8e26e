package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var activeStatuses = []appointment.AppointmentStatus{appointment.StatusBooked, appointment.StatusConfirmed}

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := conn(ctx, r.db).Create(a).Error; err != nil {
		return fmt.Errorf("creating appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := conn(ctx, r.db).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("getting appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Save(ctx context.Context, a *appointment.Appointment) error {
	if err := conn(ctx, r.db).Save(a).Error; err != nil {
		return fmt.Errorf("saving appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	p := newPage(q.Page, q.PageSize)
	db := conn(ctx, r.db).Model(&appointment.Appointment{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		db = db.Where("date >= ?", appointment.DateOnly(*q.DateFrom))
	}
	if q.DateTo != nil {
		db = db.Where("date <= ?", appointment.DateOnly(*q.DateTo))
	}

	order := "date DESC, start_time DESC"
	if q.Upcoming {
		db = db.Where("status IN ?", activeStatuses)
		order = "date ASC, start_time ASC"
	}

	var items []*appointment.Appointment
	total, err := paginate(db, p, order, &items)
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: items,
		TotalCount:   total,
		Page:         p.number,
		PageSize:     p.size,
		TotalPages:   p.totalPages(total),
	}, nil
}

func (r *AppointmentRepository) ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*appointment.Appointment, error) {
	db := conn(ctx, r.db).
		Where("doctor_id = ? AND date BETWEEN ? AND ? AND status <> ?",
			doctorID, appointment.DateOnly(from), appointment.DateOnly(to), appointment.StatusCancelled)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var items []*appointment.Appointment
	if err := db.Order("date ASC, start_time ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing doctor schedule: %w", err)
	}
	return items, nil
}

func (r *AppointmentRepository) ListDueReminders(ctx context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	var items []*appointment.Appointment
	err := conn(ctx, r.db).
		Where("status IN ? AND reminder_sent_at IS NULL AND date BETWEEN ? AND ?",
			activeStatuses, appointment.DateOnly(from), appointment.DateOnly(to)).
		Order("date ASC, start_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing due reminders: %w", err)
	}
	return items, nil
}

func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := conn(ctx, r.db).Model(&appointment.Appointment{}).
		Where("id = ?", id).
		UpdateColumn("reminder_sent_at", at).Error
	if err != nil {
		return fmt.Errorf("marking reminder sent: %w", err)
	}
	return nil
}
