package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccination"
	"github.com/vaxtrack/vaxtrack/internal/platform/metrics"
)

// RecordLister supplies a child's stored vaccine records.
type RecordLister interface {
	ListRecords(ctx context.Context, childID uuid.UUID) ([]*vaccination.VaccineRecord, error)
}

// Reminder is one active reminder line.
type Reminder struct {
	RecordID     uuid.UUID              `json:"record_id"`
	VaccineName  string                 `json:"vaccine_name"`
	AgeGroup     vaccination.AgeGroup   `json:"age_group"`
	DueDate      string                 `json:"due_date"`
	Status       vaccination.StatusKind `json:"status"`
	DaysUntilDue int                    `json:"days_until_due"`
	Message      string                 `json:"message"`
}

type Service struct {
	store   Store
	records RecordLister
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(store Store, records RecordLister, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		records: records,
		logger:  logger.With().Str("component", "reminder").Logger(),
		now:     time.Now,
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// -- Settings --

// GetSettings returns the stored settings for scope, or the defaults when
// none exist. Defaults are not written back.
func (s *Service) GetSettings(ctx context.Context, scope string) (Settings, error) {
	cur, found, err := s.store.Get(ctx, scope)
	if err != nil {
		return Settings{}, fmt.Errorf("load reminder settings: %w", err)
	}
	if !found {
		return DefaultSettings(), nil
	}
	return cur, nil
}

// SetSettings applies p over the current (or default) settings. The merge
// runs inside the store's update, so concurrent patches to different fields
// both survive; for the same field the last write wins.
func (s *Service) SetSettings(ctx context.Context, scope string, p Patch) (Settings, error) {
	if err := p.Validate(); err != nil {
		return Settings{}, err
	}
	next, _, err := s.store.Update(ctx, scope, func(cur Settings) (Settings, bool) {
		return cur.Merge(p), true
	})
	if err != nil {
		return Settings{}, fmt.Errorf("store reminder settings: %w", err)
	}
	metrics.SettingsWritten("merge")
	s.logger.Debug().Str("caregiver_id", scope).Msg("reminder settings updated")
	return next, nil
}

// ToggleVaccineReminder opts a single vaccine in or out of reminders.
// Repeating the same call is a no-op. vaccineID is matched literally: a
// vaccine opted out by name is re-enabled by toggling its name, not the id
// of one of its records, and vice versa.
func (s *Service) ToggleVaccineReminder(ctx context.Context, scope, vaccineID string, enabled bool) (Settings, error) {
	vaccineID = strings.TrimSpace(vaccineID)
	if vaccineID == "" {
		return Settings{}, fmt.Errorf("%w: vaccine id is required", ErrInvalidSettings)
	}
	next, changed, err := s.store.Update(ctx, scope, func(cur Settings) (Settings, bool) {
		return cur.WithVaccine(vaccineID, enabled)
	})
	if err != nil {
		return Settings{}, fmt.Errorf("store reminder settings: %w", err)
	}
	if changed {
		metrics.SettingsWritten("toggle")
	}
	return next, nil
}

// -- Reminder surface --

// ListVaccinesNeedingReminder filters a child's records through the
// reminder policy using scope's settings.
func (s *Service) ListVaccinesNeedingReminder(ctx context.Context, scope string, childID uuid.UUID, now time.Time) ([]*vaccination.VaccineRecord, error) {
	settings, err := s.GetSettings(ctx, scope)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListRecords(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]*vaccination.VaccineRecord, 0)
	for _, r := range records {
		if _, err := vaccination.CheckStatus(r, now); errors.Is(err, vaccination.ErrMalformedRecord) {
			ev := s.logger.Warn().Err(err)
			if r != nil {
				ev = ev.Str("record_id", r.ID.String())
			}
			ev.Msg("skipping malformed record for reminders")
			continue
		}
		if IsReminderActive(r, settings, now) {
			out = append(out, r)
		}
	}
	metrics.RemindersReturned(len(out))
	return out, nil
}

// ListReminders is ListVaccinesNeedingReminder rendered as reminder lines.
func (s *Service) ListReminders(ctx context.Context, scope string, childID uuid.UUID, now time.Time) ([]Reminder, error) {
	records, err := s.ListVaccinesNeedingReminder(ctx, scope, childID, now)
	if err != nil {
		return nil, err
	}
	out := make([]Reminder, 0, len(records))
	for _, r := range records {
		st := vaccination.DeriveStatus(r, now)
		out = append(out, Reminder{
			RecordID:     r.ID,
			VaccineName:  r.Name,
			AgeGroup:     r.AgeGroup,
			DueDate:      r.DueDate.Format(time.DateOnly),
			Status:       st.Kind,
			DaysUntilDue: st.DaysUntilDue,
			Message:      ReminderMessage(r.Name, st.DaysUntilDue),
		})
	}
	return out, nil
}
