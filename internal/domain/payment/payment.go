package payment

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusFailed    PaymentStatus = "FAILED"
	StatusRefunded  PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

var validTransitions = map[PaymentStatus][]PaymentStatus{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusFailed:    {StatusPending},
	StatusCompleted: {StatusRefunded},
	StatusRefunded:  {},
}

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:uuid;not null;uniqueIndex"`

	// Amount is in minor currency units.
	Amount   int64         `gorm:"column:amount;not null"`
	Currency string        `gorm:"column:currency;type:varchar(3);not null;default:'USD'"`
	Status   PaymentStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index"`

	ProviderReference string    `gorm:"column:provider_reference;type:varchar(100)"`
	TransactionDate   time.Time `gorm:"column:transaction_date;not null;index"`
}

func (Payment) TableName() string {
	return "billing.payments"
}

func (p *Payment) CanTransitionTo(s PaymentStatus) bool {
	return slices.Contains(validTransitions[p.Status], s)
}

// Settle moves the payment to status, stamping the transaction date.
func (p *Payment) Settle(status PaymentStatus, reference string, at time.Time) error {
	if !status.IsValid() || !p.CanTransitionTo(status) {
		return ErrInvalidStatusTransition
	}
	p.Status = status
	p.TransactionDate = at
	if reference != "" {
		p.ProviderReference = reference
	}
	return nil
}

type UpdatePaymentCommand struct {
	Status            PaymentStatus
	ProviderReference string
}

type ListPaymentsQuery struct {
	UserID   *uuid.UUID
	DoctorID *uuid.UUID
	Status   *PaymentStatus
	Page     int
	PageSize int
}

type PagedPayments struct {
	Payments   []*Payment
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
