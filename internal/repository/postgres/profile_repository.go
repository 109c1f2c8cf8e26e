package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/patient"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Profile) error {
	if err := conn(ctx, r.db).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return patient.ErrProfileExists
		}
		return fmt.Errorf("creating patient profile: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*patient.Profile, error) {
	var p patient.Profile
	if err := conn(ctx, r.db).First(&p, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting patient profile: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Save(ctx context.Context, p *patient.Profile) error {
	if err := conn(ctx, r.db).Save(p).Error; err != nil {
		return fmt.Errorf("saving patient profile: %w", err)
	}
	return nil
}

func (r *PatientRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&patient.Profile{}, "user_id = ?", userID)
	if res.Error != nil {
		return fmt.Errorf("deleting patient profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrProfileNotFound
	}
	return nil
}

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, p *doctor.Profile) error {
	if err := conn(ctx, r.db).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return doctor.ErrProfileExists
		}
		return fmt.Errorf("creating doctor profile: %w", err)
	}
	return nil
}

func (r *DoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Profile, error) {
	var p doctor.Profile
	if err := conn(ctx, r.db).First(&p, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting doctor profile: %w", err)
	}
	return &p, nil
}

func (r *DoctorRepository) Save(ctx context.Context, p *doctor.Profile) error {
	if err := conn(ctx, r.db).Save(p).Error; err != nil {
		return fmt.Errorf("saving doctor profile: %w", err)
	}
	return nil
}

func (r *DoctorRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&doctor.Profile{}, "user_id = ?", userID)
	if res.Error != nil {
		return fmt.Errorf("deleting doctor profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return doctor.ErrProfileNotFound
	}
	return nil
}

func (r *DoctorRepository) List(ctx context.Context, q *doctor.ListQuery) (*doctor.PagedProfiles, error) {
	p := newPage(q.Page, q.PageSize)
	db := conn(ctx, r.db).Model(&doctor.Profile{})

	if q.Specialty != "" {
		db = db.Where("specialty ILIKE ?", "%"+q.Specialty+"%")
	}
	if q.AcceptingOnly {
		db = db.Where("is_accepting_patients = ?", true)
	}

	var items []*doctor.Profile
	total, err := paginate(db, p, "specialty ASC, years_of_experience DESC", &items)
	if err != nil {
		return nil, fmt.Errorf("listing doctor profiles: %w", err)
	}

	return &doctor.PagedProfiles{
		Profiles:   items,
		TotalCount: total,
		Page:       p.number,
		PageSize:   p.size,
		TotalPages: p.totalPages(total),
	}, nil
}
