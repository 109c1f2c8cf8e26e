package postgres

import (
	"context"
	"errors"
	"fmt"

	mr "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/domain/medical_record"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, rec *mr.MedicalRecord) error {
	if err := conn(ctx, r.db).Omit("Corrections").Create(rec).Error; err != nil {
		return fmt.Errorf("creating medical record: %w", err)
	}
	return nil
}

func (r *MedicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*mr.MedicalRecord, error) {
	var rec mr.MedicalRecord
	if err := conn(ctx, r.db).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mr.ErrRecordNotFound
		}
		return nil, fmt.Errorf("getting medical record: %w", err)
	}
	return &rec, nil
}

func (r *MedicalRecordRepository) Update(ctx context.Context, rec *mr.MedicalRecord, c *mr.Correction) error {
	return WithTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		if err := tx.Omit("Corrections").Save(rec).Error; err != nil {
			return fmt.Errorf("saving medical record: %w", err)
		}
		if c == nil {
			return nil
		}
		c.MedicalRecordID = rec.ID
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("appending correction: %w", err)
		}
		return nil
	})
}

func (r *MedicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Delete(&mr.MedicalRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting medical record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return mr.ErrRecordNotFound
	}
	return nil
}

func (r *MedicalRecordRepository) List(ctx context.Context, q *mr.ListRecordsQuery) (*mr.PagedRecords, error) {
	p := newPage(q.Page, q.PageSize)
	db := conn(ctx, r.db).Model(&mr.MedicalRecord{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.DateFrom != nil {
		db = db.Where("visit_date >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("visit_date <= ?", *q.DateTo)
	}

	var items []*mr.MedicalRecord
	total, err := paginate(db, p, "visit_date DESC", &items)
	if err != nil {
		return nil, fmt.Errorf("listing medical records: %w", err)
	}

	return &mr.PagedRecords{
		Records:    items,
		TotalCount: total,
		Page:       p.number,
		PageSize:   p.size,
		TotalPages: p.totalPages(total),
	}, nil
}

func (r *MedicalRecordRepository) ListCorrections(ctx context.Context, recordID uuid.UUID) ([]*mr.Correction, error) {
	var items []*mr.Correction
	err := conn(ctx, r.db).
		Where("medical_record_id = ?", recordID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing corrections: %w", err)
	}
	return items, nil
}
