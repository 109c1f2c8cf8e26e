package medical_record

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Vitals struct {
	BloodPressureSystolic  *int     `json:"bpSystolic,omitempty"`
	BloodPressureDiastolic *int     `json:"bpDiastolic,omitempty"`
	HeartRateBPM           *int     `json:"heartRateBpm,omitempty"`
	TemperatureCelsius     *float64 `json:"temperatureCelsius,omitempty"`
	WeightKg               *float64 `json:"weightKg,omitempty"`
	HeightCm               *float64 `json:"heightCm,omitempty"`
	OxygenSaturation       *float64 `json:"oxygenSaturation,omitempty"`
	RespiratoryRate        *int     `json:"respiratoryRateBpm,omitempty"`
}

type MedicalRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID      uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`

	VisitDate      time.Time `gorm:"column:visit_date;not null;index"`
	ChiefComplaint string    `gorm:"column:chief_complaint;type:text"`
	Diagnoses      []string  `gorm:"column:diagnoses;serializer:json"`
	TreatmentPlans []string  `gorm:"column:treatment_plans;serializer:json"`

	// Prescriptions and lab results are free-form documents entered by the
	// doctor.
	Prescriptions datatypes.JSON `gorm:"column:prescriptions"`
	LabResults    datatypes.JSON `gorm:"column:lab_results"`
	Vitals        *Vitals        `gorm:"column:vitals;serializer:json"`

	VisitNotes   string     `gorm:"column:visit_notes;type:text;not null"`
	FollowUpDate *time.Time `gorm:"column:follow_up_date"`

	Corrections []Correction `gorm:"foreignKey:MedicalRecordID;constraint:OnDelete:CASCADE"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (MedicalRecord) TableName() string {
	return "clinical.medical_records"
}

// Correction records one update of a medical record: the previous values of
// the fields that changed.
type Correction struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	MedicalRecordID uuid.UUID      `gorm:"column:medical_record_id;type:uuid;not null;index"`
	Fields          []string       `gorm:"column:fields;serializer:json"`
	Previous        datatypes.JSON `gorm:"column:previous"`
	CorrectedBy     uuid.UUID      `gorm:"column:corrected_by;type:uuid;not null"`
}

func (Correction) TableName() string {
	return "clinical.medical_record_corrections"
}

type CreateRecordCommand struct {
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	AppointmentID  *uuid.UUID
	VisitDate      time.Time
	ChiefComplaint string
	Diagnoses      []string
	TreatmentPlans []string
	Prescriptions  json.RawMessage
	LabResults     json.RawMessage
	Vitals         *Vitals
	VisitNotes     string
	FollowUpDate   *time.Time
}

type UpdateRecordCommand struct {
	VisitDate      *time.Time
	ChiefComplaint *string
	Diagnoses      []string
	TreatmentPlans []string
	Prescriptions  json.RawMessage
	LabResults     json.RawMessage
	Vitals         *Vitals
	VisitNotes     *string
	FollowUpDate   *time.Time
}

// Apply writes the set fields onto r and returns the previous value of each
// changed field keyed by its request name.
func (c *UpdateRecordCommand) Apply(r *MedicalRecord) map[string]any {
	prev := make(map[string]any)
	if c.VisitDate != nil && !c.VisitDate.Equal(r.VisitDate) {
		prev["visitDate"] = r.VisitDate
		r.VisitDate = *c.VisitDate
	}
	if c.ChiefComplaint != nil && *c.ChiefComplaint != r.ChiefComplaint {
		prev["chiefComplaint"] = r.ChiefComplaint
		r.ChiefComplaint = *c.ChiefComplaint
	}
	if c.Diagnoses != nil {
		prev["diagnoses"] = r.Diagnoses
		r.Diagnoses = c.Diagnoses
	}
	if c.TreatmentPlans != nil {
		prev["treatmentPlans"] = r.TreatmentPlans
		r.TreatmentPlans = c.TreatmentPlans
	}
	if c.Prescriptions != nil {
		prev["prescriptions"] = json.RawMessage(r.Prescriptions)
		r.Prescriptions = datatypes.JSON(c.Prescriptions)
	}
	if c.LabResults != nil {
		prev["labResults"] = json.RawMessage(r.LabResults)
		r.LabResults = datatypes.JSON(c.LabResults)
	}
	if c.Vitals != nil {
		prev["vitals"] = r.Vitals
		r.Vitals = c.Vitals
	}
	if c.VisitNotes != nil && *c.VisitNotes != r.VisitNotes {
		prev["visitNotes"] = r.VisitNotes
		r.VisitNotes = *c.VisitNotes
	}
	if c.FollowUpDate != nil {
		prev["followUpDate"] = r.FollowUpDate
		r.FollowUpDate = c.FollowUpDate
	}
	return prev
}

type ListRecordsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedRecords struct {
	Records    []*MedicalRecord
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
