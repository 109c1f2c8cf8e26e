package notify

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/appointment"
	"github.com/google/uuid"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
	KindCancellation Kind = "cancellation"
)

type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Notice describes one appointment event. It carries everything needed to
// compose the emails so consumers never go back to the database.
type Notice struct {
	Kind               Kind                        `json:"kind"`
	AppointmentID      uuid.UUID                   `json:"appointmentId"`
	Patient            Party                       `json:"patient"`
	Doctor             Party                       `json:"doctor"`
	Date               time.Time                   `json:"date"`
	StartTime          string                      `json:"startTime"`
	EndTime            string                      `json:"endTime"`
	Type               appointment.AppointmentType `json:"type"`
	MeetingLink        string                      `json:"meetingLink,omitempty"`
	Reason             string                      `json:"reason,omitempty"`
	CancellationReason string                      `json:"cancellationReason,omitempty"`
}

func NewNotice(kind Kind, a *appointment.Appointment, patient, doctor domain.Contact) Notice {
	return Notice{
		Kind:               kind,
		AppointmentID:      a.ID,
		Patient:            Party{Name: patient.Name, Email: patient.Email},
		Doctor:             Party{Name: doctor.Name, Email: doctor.Email},
		Date:               a.Date,
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		Type:               a.Type,
		MeetingLink:        a.MeetingLink,
		Reason:             a.Reason,
		CancellationReason: a.CancellationReason,
	}
}

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Dispatcher hands a notice off for delivery without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notice)
}

// Handler delivers a notice synchronously. Implemented by Deliverer.
type Handler interface {
	Deliver(ctx context.Context, n Notice) int
}
