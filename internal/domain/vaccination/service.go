package vaccination

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/platform/metrics"
)

type Service struct {
	records   RecordRepository
	generator *Generator
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(records RecordRepository, generator *Generator, logger zerolog.Logger) *Service {
	return &Service{
		records:   records,
		generator: generator,
		logger:    logger.With().Str("component", "vaccination").Logger(),
		now:       time.Now,
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// -- Schedule generation --

// GenerateSchedule seeds a child's calendar from their birth date. It is
// idempotent: when the child already has records nothing is written and
// the existing schedule is returned with created=false. Existing due dates
// are never recomputed, even if birthDate differs from the original.
func (s *Service) GenerateSchedule(ctx context.Context, childID uuid.UUID, birthDate time.Time) ([]*VaccineRecord, bool, error) {
	if childID == uuid.Nil {
		return nil, false, fmt.Errorf("child_id is required")
	}
	if birthDate.IsZero() {
		return nil, false, fmt.Errorf("%w: birth_date is required", ErrInvalidBirthDate)
	}
	if DaysBetween(s.now(), birthDate) > 0 {
		return nil, false, fmt.Errorf("%w: %s is in the future", ErrInvalidBirthDate, birthDate.Format(time.DateOnly))
	}

	existing, err := s.records.CountByChild(ctx, childID)
	if err != nil {
		return nil, false, fmt.Errorf("count records: %w", err)
	}
	if existing > 0 {
		metrics.ScheduleGenerated(0)
		s.logger.Info().Str("child_id", childID.String()).Int("records", existing).
			Msg("schedule already exists, skipping generation")
		items, err := s.records.ListByChild(ctx, childID)
		return items, false, err
	}

	records, err := s.generator.Build(childID, birthDate)
	if err != nil {
		s.logger.Error().Err(err).Str("child_id", childID.String()).Msg("schedule template is inconsistent")
		return nil, false, err
	}
	written, err := s.records.CreateBatch(ctx, records)
	if err != nil {
		return nil, false, fmt.Errorf("store schedule: %w", err)
	}
	metrics.ScheduleGenerated(written)

	if written == 0 {
		// A concurrent call won the race; its batch is the schedule.
		items, err := s.records.ListByChild(ctx, childID)
		return items, false, err
	}
	s.logger.Info().Str("child_id", childID.String()).Int("records", written).
		Str("birth_date", birthDate.Format(time.DateOnly)).Msg("schedule generated")
	SortRecords(records)
	return records, true, nil
}

// PreviewSchedule builds a calendar without storing it.
func (s *Service) PreviewSchedule(birthDate time.Time) ([]*VaccineRecord, error) {
	if birthDate.IsZero() {
		return nil, fmt.Errorf("%w: birth_date is required", ErrInvalidBirthDate)
	}
	records, err := s.generator.Build(uuid.Nil, birthDate)
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return records, nil
}

// -- Reads --

// Derive classifies r as of now, logging and counting malformed records.
func (s *Service) Derive(r *VaccineRecord, now time.Time) DerivedStatus {
	st, err := CheckStatus(r, now)
	if errors.Is(err, ErrMalformedRecord) {
		metrics.MalformedRecord()
		evt := s.logger.Warn().Err(err)
		if r != nil {
			evt = evt.Str("record_id", r.ID.String()).Str("child_id", r.ChildID.String())
		}
		evt.Msg("malformed vaccine record reported as pending")
	}
	return st
}

// ListRecords returns a child's stored records without deriving status.
func (s *Service) ListRecords(ctx context.Context, childID uuid.UUID) ([]*VaccineRecord, error) {
	return s.records.ListByChild(ctx, childID)
}

// ListVaccines returns a child's records with their status as of now. When
// filter is non-nil only records whose derived status matches are kept.
func (s *Service) ListVaccines(ctx context.Context, childID uuid.UUID, filter *StatusKind, now time.Time) ([]RecordView, error) {
	records, err := s.records.ListByChild(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		st := s.Derive(r, now)
		if filter != nil && st.Kind != *filter {
			continue
		}
		views = append(views, RecordView{VaccineRecord: r, Derived: st})
	}
	return views, nil
}

// Summary counts a child's doses per derived status and finds the earliest
// dose that is not yet completed.
func (s *Service) Summary(ctx context.Context, childID uuid.UUID, now time.Time) (*Summary, error) {
	views, err := s.ListVaccines(ctx, childID, nil, now)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("schedule for child %s: %w", childID, ErrNotFound)
	}

	sum := &Summary{
		ChildID: childID,
		AsOf:    DateOf(now).Format(time.DateOnly),
		Total:   len(views),
		Counts: map[StatusKind]int{
			KindCompleted: 0, KindOverdue: 0, KindDueToday: 0, KindDueSoon: 0, KindPending: 0,
		},
	}
	for i := range views {
		v := views[i]
		sum.Counts[v.Derived.Kind]++
		if v.Derived.Kind != KindCompleted && v.Derived.HasDueDate && sum.NextDue == nil {
			sum.NextDue = &v
		}
	}
	pct := float64(sum.Counts[KindCompleted]) / float64(sum.Total) * 100
	sum.PercentCompleted = math.Round(pct*10) / 10
	return sum, nil
}

// -- Mutation --

// MarkCompleted records a dose as administered. completedDate defaults to
// today. Completion is one-way; repeating the call leaves the original
// completion date in place.
func (s *Service) MarkCompleted(ctx context.Context, id uuid.UUID, completedDate *time.Time, proofURL *string) (*VaccineRecord, error) {
	when := s.now()
	if completedDate != nil && !completedDate.IsZero() {
		when = *completedDate
	}
	rec, updated, err := s.records.MarkCompleted(ctx, id, when, proofURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("vaccine record %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	if !updated {
		return rec, nil
	}
	metrics.VaccineCompleted()
	s.logger.Info().Str("record_id", id.String()).Str("vaccine", rec.Name).Msg("vaccine marked completed")
	return rec, nil
}
