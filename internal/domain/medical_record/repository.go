package medical_record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	// Update saves r and appends c in one transaction.
	Update(ctx context.Context, r *MedicalRecord, c *Correction) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListRecordsQuery) (*PagedRecords, error)
	ListCorrections(ctx context.Context, recordID uuid.UUID) ([]*Correction, error)
}
