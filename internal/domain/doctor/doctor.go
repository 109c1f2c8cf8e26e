package doctor

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`

	Specialty         string   `gorm:"column:specialty;type:varchar(100);not null;index"`
	Qualifications    []string `gorm:"column:qualifications;serializer:json"`
	LicenseNumber     string   `gorm:"column:license_number;type:varchar(50)"`
	Bio               string   `gorm:"column:bio;type:text"`
	YearsOfExperience int      `gorm:"column:years_of_experience;default:0"`
	// ConsultationFee is in minor currency units.
	ConsultationFee int64    `gorm:"column:consultation_fee;default:0"`
	Education       []string `gorm:"column:education;serializer:json"`
	Languages       []string `gorm:"column:languages;serializer:json"`

	// AvailabilitySchedule is kept as the JSON document the doctor submits,
	// e.g. {"monday":["09:00-12:00"]}.
	AvailabilitySchedule datatypes.JSON `gorm:"column:availability_schedule"`
	IsAcceptingPatients  bool           `gorm:"column:is_accepting_patients;not null;default:true;index"`
}

func (Profile) TableName() string {
	return "clinical.doctor_profiles"
}

type ProfileCommand struct {
	Specialty            *string
	Qualifications       []string
	LicenseNumber        *string
	Bio                  *string
	YearsOfExperience    *int
	ConsultationFee      *int64
	Education            []string
	Languages            []string
	AvailabilitySchedule json.RawMessage
	IsAcceptingPatients  *bool
}

func (c *ProfileCommand) Validate() error {
	if c.YearsOfExperience != nil && *c.YearsOfExperience < 0 {
		return ErrInvalidProfile
	}
	if c.ConsultationFee != nil && *c.ConsultationFee < 0 {
		return ErrInvalidProfile
	}
	if c.AvailabilitySchedule != nil && !json.Valid(c.AvailabilitySchedule) {
		return ErrInvalidProfile
	}
	return nil
}

func (c *ProfileCommand) Apply(p *Profile) {
	if c.Specialty != nil {
		p.Specialty = *c.Specialty
	}
	if c.Qualifications != nil {
		p.Qualifications = c.Qualifications
	}
	if c.LicenseNumber != nil {
		p.LicenseNumber = *c.LicenseNumber
	}
	if c.Bio != nil {
		p.Bio = *c.Bio
	}
	if c.YearsOfExperience != nil {
		p.YearsOfExperience = *c.YearsOfExperience
	}
	if c.ConsultationFee != nil {
		p.ConsultationFee = *c.ConsultationFee
	}
	if c.Education != nil {
		p.Education = c.Education
	}
	if c.Languages != nil {
		p.Languages = c.Languages
	}
	if c.AvailabilitySchedule != nil {
		p.AvailabilitySchedule = datatypes.JSON(c.AvailabilitySchedule)
	}
	if c.IsAcceptingPatients != nil {
		p.IsAcceptingPatients = *c.IsAcceptingPatients
	}
}

type ListQuery struct {
	Specialty     string
	AcceptingOnly bool
	Page          int
	PageSize      int
}

type PagedProfiles struct {
	Profiles   []*Profile
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
