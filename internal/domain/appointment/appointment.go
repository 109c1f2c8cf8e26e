package appointment

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type AppointmentType string

const (
	TypeInPerson   AppointmentType = "IN_PERSON"
	TypeTelehealth AppointmentType = "TELEHEALTH"
)

func (t AppointmentType) IsValid() bool {
	return t == TypeInPerson || t == TypeTelehealth
}

func (t AppointmentType) Label() string {
	if t == TypeTelehealth {
		return "Telehealth"
	}
	return "In-Person"
}

// State transitions:
//
//	BOOKED → CONFIRMED → COMPLETED
//	BOOKED → CANCELLED
//	CONFIRMED → CANCELLED
type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "BOOKED"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusBooked, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusBooked:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func isValidTransition(from, to AppointmentStatus) bool {
	return slices.Contains(validTransitions[from], to)
}

const (
	DefaultDuration = 30
	MinDuration     = 5
	MaxDuration     = 480
)

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	Date      time.Time         `gorm:"column:date;type:date;not null;index"`
	StartTime string            `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime   string            `gorm:"column:end_time;type:varchar(5);not null"`
	Duration  int               `gorm:"column:duration;not null;default:30"`
	Type      AppointmentType   `gorm:"column:type;type:varchar(20);not null;default:'IN_PERSON'"`
	Status    AppointmentStatus `gorm:"column:status;type:varchar(20);not null;default:'BOOKED';index"`

	Reason      string `gorm:"column:reason;type:text"`
	Symptoms    string `gorm:"column:symptoms;type:text"`
	Notes       string `gorm:"column:notes;type:text"`
	MeetingLink string `gorm:"column:meeting_link;type:varchar(500)"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	ReminderSentAt *time.Time `gorm:"column:reminder_sent_at"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) CanTransitionTo(newStatus AppointmentStatus) bool {
	return isValidTransition(a.Status, newStatus)
}

func (a *Appointment) TransitionTo(newStatus AppointmentStatus) error {
	if !newStatus.IsValid() || !a.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}
	a.Status = newStatus
	return nil
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

// StartsAt combines the appointment date with its start clock, in UTC.
func (a *Appointment) StartsAt() time.Time {
	start, err := ParseClock(a.StartTime)
	if err != nil {
		start = 0
	}
	d := a.Date.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(start) * time.Minute)
}

// Overlaps reports whether two appointments share any minute. A slot that
// runs past midnight collides with early slots of the next date.
func (a *Appointment) Overlaps(other *Appointment) bool {
	if _, err := ParseClock(a.StartTime); err != nil {
		return false
	}
	if _, err := ParseClock(other.StartTime); err != nil {
		return false
	}
	aStart, bStart := a.StartsAt(), other.StartsAt()
	return aStart.Before(bStart.Add(time.Duration(other.Duration)*time.Minute)) &&
		bStart.Before(aStart.Add(time.Duration(a.Duration)*time.Minute))
}

// Reschedule moves the appointment and recomputes its end time.
func (a *Appointment) Reschedule(date time.Time, startTime string, duration int) error {
	if duration < MinDuration || duration > MaxDuration {
		return ErrInvalidDuration
	}
	end, err := EndTime(startTime, duration)
	if err != nil {
		return err
	}
	a.Date = DateOnly(date.UTC())
	a.StartTime = startTime
	a.Duration = duration
	a.EndTime = end
	return nil
}

type CreateAppointmentCommand struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Date        time.Time
	StartTime   string
	Duration    int
	Type        AppointmentType
	Reason      string
	Symptoms    string
	Notes       string
	MeetingLink string
}

type UpdateAppointmentCommand struct {
	Date               *time.Time
	StartTime          *string
	Duration           *int
	Status             *AppointmentStatus
	Type               *AppointmentType
	Notes              *string
	CancellationReason *string
	MeetingLink        *string
	Reason             *string
	Symptoms           *string
}

// Fields lists the request field names that are set.
func (c *UpdateAppointmentCommand) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(c.Date != nil, "date")
	add(c.StartTime != nil, "startTime")
	add(c.Duration != nil, "duration")
	add(c.Status != nil, "status")
	add(c.Type != nil, "type")
	add(c.Notes != nil, "notes")
	add(c.CancellationReason != nil, "cancellationReason")
	add(c.MeetingLink != nil, "meetingLink")
	add(c.Reason != nil, "reason")
	add(c.Symptoms != nil, "symptoms")
	return fields
}

func (c *UpdateAppointmentCommand) Reschedules() bool {
	return c.Date != nil || c.StartTime != nil || c.Duration != nil
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	// Upcoming restricts to BOOKED/CONFIRMED appointments from today on,
	// soonest first.
	Upcoming bool
	Page     int
	PageSize int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
