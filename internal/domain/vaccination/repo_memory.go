package vaccination

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type recordKey struct {
	childID  uuid.UUID
	ageGroup AgeGroup
	name     string
}

type memoryRecordRepo struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*VaccineRecord
	byChild map[uuid.UUID][]uuid.UUID
	keys    map[recordKey]bool
}

// NewMemoryRecordRepo returns a process-local record store.
func NewMemoryRecordRepo() RecordRepository {
	return &memoryRecordRepo{
		byID:    make(map[uuid.UUID]*VaccineRecord),
		byChild: make(map[uuid.UUID][]uuid.UUID),
		keys:    make(map[recordKey]bool),
	}
}

func (m *memoryRecordRepo) CreateBatch(_ context.Context, records []*VaccineRecord) (int, error) {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()

	written := 0
	for _, r := range records {
		k := recordKey{r.ChildID, r.AgeGroup, r.Name}
		if m.keys[k] {
			continue
		}
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.CreatedAt, r.UpdatedAt = now, now
		m.keys[k] = true
		m.byID[r.ID] = cloneRecord(r)
		m.byChild[r.ChildID] = append(m.byChild[r.ChildID], r.ID)
		written++
	}
	return written, nil
}

func (m *memoryRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*VaccineRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *memoryRecordRepo) ListByChild(_ context.Context, childID uuid.UUID) ([]*VaccineRecord, error) {
	m.mu.RLock()
	ids := m.byChild[childID]
	items := make([]*VaccineRecord, 0, len(ids))
	for _, id := range ids {
		items = append(items, cloneRecord(m.byID[id]))
	}
	m.mu.RUnlock()

	SortRecords(items)
	return items, nil
}

func (m *memoryRecordRepo) CountByChild(_ context.Context, childID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byChild[childID]), nil
}

func (m *memoryRecordRepo) MarkCompleted(_ context.Context, id uuid.UUID, completedDate time.Time, proofURL *string) (*VaccineRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if r.IsCompleted() {
		return cloneRecord(r), false, nil
	}
	cd := DateOf(completedDate)
	r.Status = StatusCompleted
	r.CompletedDate = &cd
	if proofURL != nil {
		u := *proofURL
		r.ProofURL = &u
	}
	r.UpdatedAt = time.Now().UTC()
	return cloneRecord(r), true, nil
}

// SortRecords orders records by due date then template position. Records
// without a due date sort last.
func SortRecords(items []*VaccineRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.Position < b.Position
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.Position < b.Position
	})
}

func cloneRecord(r *VaccineRecord) *VaccineRecord {
	c := *r
	if r.DueDate != nil {
		d := *r.DueDate
		c.DueDate = &d
	}
	if r.CompletedDate != nil {
		d := *r.CompletedDate
		c.CompletedDate = &d
	}
	if r.ProofURL != nil {
		u := *r.ProofURL
		c.ProofURL = &u
	}
	return &c
}
