package patient

import (
	"time"

	"github.com/google/uuid"
)

type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

func (b BloodType) IsValid() bool {
	switch b {
	case BloodTypeAPos, BloodTypeANeg, BloodTypeBPos, BloodTypeBNeg,
		BloodTypeABPos, BloodTypeABNeg, BloodTypeOPos, BloodTypeONeg:
		return true
	}
	return false
}

type EmergencyContact struct {
	Name     string `gorm:"column:emergency_contact_name;type:varchar(200)" json:"name"`
	Phone    string `gorm:"column:emergency_contact_phone;type:varchar(30)" json:"phone"`
	Relation string `gorm:"column:emergency_contact_relation;type:varchar(50)" json:"relation"`
}

// Profile holds the clinical details of a user with the PATIENT role.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`

	DateOfBirth *time.Time `gorm:"column:date_of_birth"`
	Phone       string     `gorm:"column:phone;type:varchar(30)"`
	Address     string     `gorm:"column:address;type:text"`
	BloodType   BloodType  `gorm:"column:blood_type;type:varchar(5)"`

	MedicalHistory     string   `gorm:"column:medical_history;type:text"`
	Allergies          []string `gorm:"column:allergies;serializer:json"`
	CurrentMedications []string `gorm:"column:current_medications;serializer:json"`

	EmergencyContact EmergencyContact `gorm:"embedded"`
}

func (Profile) TableName() string {
	return "clinical.patient_profiles"
}

// Age returns whole years since birth, or -1 when unknown.
func (p *Profile) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

type ProfileCommand struct {
	DateOfBirth        *time.Time
	Phone              *string
	Address            *string
	BloodType          *BloodType
	MedicalHistory     *string
	Allergies          []string
	CurrentMedications []string
	EmergencyContact   *EmergencyContact
}

func (c *ProfileCommand) Validate(now time.Time) error {
	if c.BloodType != nil && *c.BloodType != "" && !c.BloodType.IsValid() {
		return ErrInvalidBloodType
	}
	if c.DateOfBirth != nil && c.DateOfBirth.After(now) {
		return ErrInvalidDateOfBirth
	}
	return nil
}

func (c *ProfileCommand) Apply(p *Profile) {
	if c.DateOfBirth != nil {
		p.DateOfBirth = c.DateOfBirth
	}
	if c.Phone != nil {
		p.Phone = *c.Phone
	}
	if c.Address != nil {
		p.Address = *c.Address
	}
	if c.BloodType != nil {
		p.BloodType = *c.BloodType
	}
	if c.MedicalHistory != nil {
		p.MedicalHistory = *c.MedicalHistory
	}
	if c.Allergies != nil {
		p.Allergies = c.Allergies
	}
	if c.CurrentMedications != nil {
		p.CurrentMedications = c.CurrentMedications
	}
	if c.EmergencyContact != nil {
		p.EmergencyContact = *c.EmergencyContact
	}
}
