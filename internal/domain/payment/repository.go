package payment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
	// List orders by transaction date, newest first.
	List(ctx context.Context, q *ListPaymentsQuery) (*PagedPayments, error)
}
