package vaccination

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus is the persisted completion state of a dose.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusCompleted RecordStatus = "completed"
)

// VaccineRecord maps to the vaccine_record table. Status is the only
// persisted state; overdue/due-soon are derived on every read.
type VaccineRecord struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	ChildID       uuid.UUID    `db:"child_id" json:"child_id"`
	Name          string       `db:"vaccine_name" json:"name"`
	AgeGroup      AgeGroup     `db:"age_group" json:"age_group"`
	Position      int          `db:"position" json:"position"`
	DueDate       *time.Time   `db:"due_date" json:"due_date"`
	Status        RecordStatus `db:"status" json:"status"`
	CompletedDate *time.Time   `db:"completed_date" json:"completed_date,omitempty"`
	ProofURL      *string      `db:"proof_url" json:"proof_url,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// IsCompleted reports whether the dose has been administered.
func (r *VaccineRecord) IsCompleted() bool { return r.Status == StatusCompleted }

// RecordView is a record together with its status as of a given date.
type RecordView struct {
	*VaccineRecord
	Derived DerivedStatus `json:"derived_status"`
}

// Summary aggregates a child's schedule as of a given date.
type Summary struct {
	ChildID          uuid.UUID          `json:"child_id"`
	AsOf             string             `json:"as_of"`
	Total            int                `json:"total"`
	Counts           map[StatusKind]int `json:"counts"`
	PercentCompleted float64            `json:"percent_completed"`
	NextDue          *RecordView        `json:"next_due,omitempty"`
}
