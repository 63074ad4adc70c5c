package vaccination

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordRepository stores generated vaccine records.
type RecordRepository interface {
	// CreateBatch persists all records or none of them. Records whose
	// (child, age group, vaccine) already exist are skipped; the number of
	// rows actually written is returned.
	CreateBatch(ctx context.Context, records []*VaccineRecord) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*VaccineRecord, error)
	// ListByChild returns a child's records ordered by due date, then
	// template position.
	ListByChild(ctx context.Context, childID uuid.UUID) ([]*VaccineRecord, error)
	CountByChild(ctx context.Context, childID uuid.UUID) (int, error)
	// MarkCompleted moves a pending record to completed and reports whether
	// it did. A record that is already completed is returned unchanged with
	// updated=false.
	MarkCompleted(ctx context.Context, id uuid.UUID, completedDate time.Time, proofURL *string) (rec *VaccineRecord, updated bool, err error)
}
