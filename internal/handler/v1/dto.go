package v1

import (
	"encoding/json"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/access"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/content"
	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/payment"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/google/uuid"
)

type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func pageOf[S, T any](items []S, total int64, page, size, pages int, conv func(S) T) PageResponse[T] {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, conv(it))
	}
	return PageResponse[T]{Items: out, TotalCount: total, Page: page, PageSize: size, TotalPages: pages}
}

func fromPage[S, T any](p *service.Page[S], conv func(*S) T) PageResponse[T] {
	out := make([]T, 0, len(p.Items))
	for i := range p.Items {
		out = append(out, conv(&p.Items[i]))
	}
	return PageResponse[T]{Items: out, TotalCount: p.TotalCount, Page: p.Page, PageSize: p.PageSize, TotalPages: p.TotalPages}
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Role        access.Role `json:"role"`
	IsActive    bool        `json:"isActive"`
	MFAEnabled  bool        `json:"mfaEnabled"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		MFAEnabled:  u.MFAEnabled,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

type AppointmentResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Patient            domain.Contact `json:"patient"`
	Doctor             domain.Contact `json:"doctor"`
	Date               string         `json:"date"`
	StartTime          string         `json:"startTime"`
	EndTime            string         `json:"endTime"`
	Duration           int            `json:"duration"`
	Type               string         `json:"type"`
	Status             string         `json:"status"`
	Reason             string         `json:"reason,omitempty"`
	Symptoms           string         `json:"symptoms,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	MeetingLink        string         `json:"meetingLink,omitempty"`
	CancelledAt        *time.Time     `json:"cancelledAt,omitempty"`
	CancellationReason string         `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

func toAppointmentResponse(d *service.AppointmentDetails) AppointmentResponse {
	a := d.Appointment
	return AppointmentResponse{
		ID:                 a.ID,
		Patient:            d.Patient,
		Doctor:             d.Doctor,
		Date:               a.Date.Format(dateLayout),
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		Duration:           a.Duration,
		Type:               string(a.Type),
		Status:             string(a.Status),
		Reason:             a.Reason,
		Symptoms:           a.Symptoms,
		Notes:              a.Notes,
		MeetingLink:        a.MeetingLink,
		CancelledAt:        a.CancelledAt,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

type RecordResponse struct {
	ID             uuid.UUID       `json:"id"`
	Patient        domain.Contact  `json:"patient"`
	Doctor         domain.Contact  `json:"doctor"`
	AppointmentID  *uuid.UUID      `json:"appointmentId,omitempty"`
	VisitDate      time.Time       `json:"visitDate"`
	ChiefComplaint string          `json:"chiefComplaint,omitempty"`
	Diagnoses      []string        `json:"diagnoses"`
	TreatmentPlans []string        `json:"treatmentPlans"`
	Prescriptions  json.RawMessage `json:"prescriptions,omitempty"`
	LabResults     json.RawMessage `json:"labResults,omitempty"`
	Vitals         *mr.Vitals      `json:"vitals,omitempty"`
	VisitNotes     string          `json:"visitNotes"`
	FollowUpDate   *time.Time      `json:"followUpDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toRecordResponse(d *service.RecordDetails) RecordResponse {
	r := d.MedicalRecord
	return RecordResponse{
		ID:             r.ID,
		Patient:        d.Patient,
		Doctor:         d.Doctor,
		AppointmentID:  r.AppointmentID,
		VisitDate:      r.VisitDate,
		ChiefComplaint: r.ChiefComplaint,
		Diagnoses:      nonNil(r.Diagnoses),
		TreatmentPlans: nonNil(r.TreatmentPlans),
		Prescriptions:  json.RawMessage(r.Prescriptions),
		LabResults:     json.RawMessage(r.LabResults),
		Vitals:         r.Vitals,
		VisitNotes:     r.VisitNotes,
		FollowUpDate:   r.FollowUpDate,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type CorrectionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Fields      []string        `json:"fields"`
	Previous    json.RawMessage `json:"previous"`
	CorrectedBy uuid.UUID       `json:"correctedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toCorrectionResponse(c *mr.Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:          c.ID,
		Fields:      c.Fields,
		Previous:    json.RawMessage(c.Previous),
		CorrectedBy: c.CorrectedBy,
		CreatedAt:   c.CreatedAt,
	}
}

type DoctorResponse struct {
	UserID               uuid.UUID       `json:"userId"`
	Doctor               domain.Contact  `json:"doctor"`
	Specialty            string          `json:"specialty"`
	Qualifications       []string        `json:"qualifications"`
	LicenseNumber        string          `json:"licenseNumber,omitempty"`
	Bio                  string          `json:"bio,omitempty"`
	YearsOfExperience    int             `json:"yearsOfExperience"`
	ConsultationFee      int64           `json:"consultationFee"`
	Education            []string        `json:"education"`
	Languages            []string        `json:"languages"`
	AvailabilitySchedule json.RawMessage `json:"availabilitySchedule,omitempty"`
	IsAcceptingPatients  bool            `json:"isAcceptingPatients"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func toDoctorResponse(d *service.DoctorDetails) DoctorResponse {
	p := d.Profile
	return DoctorResponse{
		UserID:               p.UserID,
		Doctor:               d.Doctor,
		Specialty:            p.Specialty,
		Qualifications:       nonNil(p.Qualifications),
		LicenseNumber:        p.LicenseNumber,
		Bio:                  p.Bio,
		YearsOfExperience:    p.YearsOfExperience,
		ConsultationFee:      p.ConsultationFee,
		Education:            nonNil(p.Education),
		Languages:            nonNil(p.Languages),
		AvailabilitySchedule: json.RawMessage(p.AvailabilitySchedule),
		IsAcceptingPatients:  p.IsAcceptingPatients,
		UpdatedAt:            p.UpdatedAt,
	}
}

type PatientProfileResponse struct {
	UserID             uuid.UUID                `json:"userId"`
	DateOfBirth        *string                  `json:"dateOfBirth,omitempty"`
	Age                *int                     `json:"age,omitempty"`
	Phone              string                   `json:"phone,omitempty"`
	Address            string                   `json:"address,omitempty"`
	BloodType          patient.BloodType        `json:"bloodType,omitempty"`
	MedicalHistory     string                   `json:"medicalHistory,omitempty"`
	Allergies          []string                 `json:"allergies"`
	CurrentMedications []string                 `json:"currentMedications"`
	EmergencyContact   patient.EmergencyContact `json:"emergencyContact"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

func toPatientProfileResponse(p *patient.Profile, now time.Time) PatientProfileResponse {
	resp := PatientProfileResponse{
		UserID:             p.UserID,
		Phone:              p.Phone,
		Address:            p.Address,
		BloodType:          p.BloodType,
		MedicalHistory:     p.MedicalHistory,
		Allergies:          nonNil(p.Allergies),
		CurrentMedications: nonNil(p.CurrentMedications),
		EmergencyContact:   p.EmergencyContact,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format(dateLayout)
		age := p.Age(now)
		resp.DateOfBirth = &dob
		resp.Age = &age
	}
	return resp
}

type ContentResponse struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Body          string     `json:"body"`
	Summary       string     `json:"summary,omitempty"`
	Categories    []string   `json:"categories"`
	Tags          []string   `json:"tags"`
	FeaturedImage string     `json:"featuredImage,omitempty"`
	ReadingTime   int        `json:"readingTime"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	Views         int64      `json:"views"`
	AuthorID      uuid.UUID  `json:"authorId"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toContentResponse(c *content.Content) ContentResponse {
	return ContentResponse{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		Body:          c.Body,
		Summary:       c.Summary,
		Categories:    nonNil(c.Categories),
		Tags:          nonNil(c.Tags),
		FeaturedImage: c.FeaturedImage,
		ReadingTime:   c.ReadingTime,
		Published:     c.Published,
		PublishedAt:   c.PublishedAt,
		Views:         c.Views,
		AuthorID:      c.AuthorID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type PaymentResponse struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	DoctorID          uuid.UUID `json:"doctorId"`
	AppointmentID     uuid.UUID `json:"appointmentId"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	ProviderReference string    `json:"providerReference,omitempty"`
	TransactionDate   time.Time `json:"transactionDate"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		UserID:            p.UserID,
		DoctorID:          p.DoctorID,
		AppointmentID:     p.AppointmentID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            string(p.Status),
		ProviderReference: p.ProviderReference,
		TransactionDate:   p.TransactionDate,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
