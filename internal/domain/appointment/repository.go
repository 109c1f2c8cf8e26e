package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Save(ctx context.Context, a *Appointment) error
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// ListForDoctorBetween returns the doctor's non-cancelled appointments
	// dated from..to inclusive, optionally excluding one. Used for
	// double-booking checks.
	ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*Appointment, error)

	// ListDueReminders returns BOOKED/CONFIRMED appointments dated between
	// from and to (inclusive, by date) that have not been reminded yet.
	ListDueReminders(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}
