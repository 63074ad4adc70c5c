package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccination"
)

// mockLister serves fixed records per child.
type mockLister struct {
	records map[uuid.UUID][]*vaccination.VaccineRecord
	err     error
}

func (m *mockLister) ListRecords(_ context.Context, childID uuid.UUID) ([]*vaccination.VaccineRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records[childID], nil
}

// countingStore wraps a Store and counts updates that changed something.
type countingStore struct {
	Store
	puts int
}

func (c *countingStore) Update(ctx context.Context, scope string, fn Mutation) (Settings, bool, error) {
	s, changed, err := c.Store.Update(ctx, scope, fn)
	if changed {
		c.puts++
	}
	return s, changed, err
}

type errStore struct{ err error }

func (e errStore) Get(context.Context, string) (Settings, bool, error) { return Settings{}, false, e.err }
func (e errStore) Update(context.Context, string, Mutation) (Settings, bool, error) {
	return Settings{}, false, e.err
}

func newTestService(store Store, lister RecordLister, today time.Time) *Service {
	svc := NewService(store, lister, zerolog.Nop())
	svc.now = func() time.Time { return today }
	return svc
}

func TestService_GetSettings_DefaultsNotPersisted(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	svc := newTestService(store, &mockLister{}, day(2024, 2, 12))

	s, err := svc.GetSettings(context.Background(), "cg-1")
	if err != nil {
		t.Fatalf("GetSettings() error: %v", err)
	}
	if s.ReminderDaysBefore != DefaultDaysBefore || !s.GlobalRemindersEnabled {
		t.Errorf("expected defaults, got %+v", s)
	}
	if store.puts != 0 {
		t.Errorf("expected no writes, got %d", store.puts)
	}
}

func TestService_SetSettings(t *testing.T) {
	svc := newTestService(NewMemoryStore(), &mockLister{}, day(2024, 2, 12))
	ctx := context.Background()

	if _, err := svc.SetSettings(ctx, "cg-1", Patch{ReminderDaysBefore: intPtr(4)}); err != nil {
		t.Fatalf("SetSettings() error: %v", err)
	}
	got, err := svc.SetSettings(ctx, "cg-1", Patch{CallRemindersEnabled: boolPtr(false)})
	if err != nil {
		t.Fatalf("SetSettings() error: %v", err)
	}
	if got.ReminderDaysBefore != 4 || got.CallRemindersEnabled {
		t.Errorf("expected both patches applied, got %+v", got)
	}

	stored, _ := svc.GetSettings(ctx, "cg-1")
	if stored.ReminderDaysBefore != 4 || stored.CallRemindersEnabled {
		t.Errorf("stored settings do not match, got %+v", stored)
	}

	// Scopes are independent.
	other, _ := svc.GetSettings(ctx, "cg-2")
	if other.ReminderDaysBefore != DefaultDaysBefore {
		t.Errorf("expected defaults for other scope, got %+v", other)
	}
}

func TestService_SetSettings_Invalid(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	svc := newTestService(store, &mockLister{}, day(2024, 2, 12))

	_, err := svc.SetSettings(context.Background(), "cg-1", Patch{ReminderDaysBefore: intPtr(-2)})
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
	if store.puts != 0 {
		t.Error("invalid patch must not be stored")
	}
}

func TestService_SetSettings_StoreError(t *testing.T) {
	boom := errors.New("redis down")
	svc := newTestService(errStore{err: boom}, &mockLister{}, day(2024, 2, 12))
	if _, err := svc.SetSettings(context.Background(), "cg-1", Patch{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestService_SetSettings_ConcurrentDisjointPatches(t *testing.T) {
	svc := newTestService(NewMemoryStore(), &mockLister{}, day(2024, 2, 12))
	ctx := context.Background()

	patches := []Patch{
		{GlobalRemindersEnabled: boolPtr(false)},
		{ReminderDaysBefore: intPtr(5)},
		{CallRemindersEnabled: boolPtr(false)},
		{NotificationRemindersEnabled: boolPtr(false)},
	}
	for round := 0; round < 20; round++ {
		scope := uuid.NewString()
		var wg sync.WaitGroup
		for _, p := range patches {
			wg.Add(1)
			go func(p Patch) {
				defer wg.Done()
				if _, err := svc.SetSettings(ctx, scope, p); err != nil {
					t.Errorf("SetSettings() error: %v", err)
				}
			}(p)
		}
		wg.Wait()

		got, _ := svc.GetSettings(ctx, scope)
		if got.GlobalRemindersEnabled || got.CallRemindersEnabled || got.NotificationRemindersEnabled || got.ReminderDaysBefore != 5 {
			t.Fatalf("round %d: a concurrent patch was lost: %+v", round, got)
		}
	}
}

func TestService_ToggleVaccineReminder(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore()}
	svc := newTestService(store, &mockLister{}, day(2024, 2, 12))
	ctx := context.Background()

	s, err := svc.ToggleVaccineReminder(ctx, "cg-1", "BCG", false)
	if err != nil {
		t.Fatalf("ToggleVaccineReminder() error: %v", err)
	}
	if !s.IsDisabled("BCG") {
		t.Error("expected BCG disabled")
	}

	if _, err := svc.ToggleVaccineReminder(ctx, "cg-1", "BCG", false); err != nil {
		t.Fatalf("repeat toggle error: %v", err)
	}
	if store.puts != 1 {
		t.Errorf("expected repeat toggle to skip the write, got %d puts", store.puts)
	}

	s, _ = svc.ToggleVaccineReminder(ctx, "cg-1", "BCG", true)
	if s.IsDisabled("BCG") {
		t.Error("expected BCG enabled again")
	}

	if _, err := svc.ToggleVaccineReminder(ctx, "cg-1", "  ", false); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings for blank id, got %v", err)
	}
}

func TestService_ToggleVaccineReminder_MatchesKeyLiterally(t *testing.T) {
	svc := newTestService(NewMemoryStore(), &mockLister{}, day(2024, 2, 12))
	ctx := context.Background()
	r := record("MMR-1", day(2024, 2, 13), vaccination.StatusPending)

	if _, err := svc.ToggleVaccineReminder(ctx, "cg-1", "MMR-1", false); err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	s, err := svc.ToggleVaccineReminder(ctx, "cg-1", r.ID.String(), true)
	if err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	if !s.IsDisabled(r.Name) {
		t.Error("enabling by record id must not clear a name opt-out")
	}
	s, _ = svc.ToggleVaccineReminder(ctx, "cg-1", "MMR-1", true)
	if !IsReminderActive(r, s, day(2024, 2, 12)) {
		t.Error("expected reminder active after enabling by name")
	}
}

func TestService_ListVaccinesNeedingReminder_NilRecord(t *testing.T) {
	childID := uuid.New()
	now := day(2024, 2, 12)
	lister := &mockLister{records: map[uuid.UUID][]*vaccination.VaccineRecord{childID: {
		nil,
		record("DTaP-1", day(2024, 2, 12), vaccination.StatusPending),
	}}}
	svc := newTestService(NewMemoryStore(), lister, now)

	got, err := svc.ListVaccinesNeedingReminder(context.Background(), "cg-1", childID, now)
	if err != nil {
		t.Fatalf("ListVaccinesNeedingReminder() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "DTaP-1" {
		t.Errorf("expected only DTaP-1, got %v", got)
	}
}

func TestService_ListVaccinesNeedingReminder(t *testing.T) {
	childID := uuid.New()
	now := day(2024, 2, 12)
	records := []*vaccination.VaccineRecord{
		record("BCG", day(2024, 1, 1), vaccination.StatusCompleted),
		record("OPV-0", day(2024, 1, 1), vaccination.StatusPending),
		record("DTaP-1", day(2024, 2, 12), vaccination.StatusPending),
		record("PCV-1", day(2024, 2, 14), vaccination.StatusPending),
		record("IPV-2", day(2024, 3, 11), vaccination.StatusPending),
		{ID: uuid.New(), Name: "Broken", Status: vaccination.StatusPending},
	}
	lister := &mockLister{records: map[uuid.UUID][]*vaccination.VaccineRecord{childID: records}}
	svc := newTestService(NewMemoryStore(), lister, now)
	ctx := context.Background()

	got, err := svc.ListVaccinesNeedingReminder(ctx, "cg-1", childID, now)
	if err != nil {
		t.Fatalf("ListVaccinesNeedingReminder() error: %v", err)
	}
	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.Name)
	}
	want := []string{"OPV-0", "DTaP-1", "PCV-1"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	if _, err := svc.ToggleVaccineReminder(ctx, "cg-1", "OPV-0", false); err != nil {
		t.Fatalf("toggle error: %v", err)
	}
	got, _ = svc.ListVaccinesNeedingReminder(ctx, "cg-1", childID, now)
	if len(got) != 2 {
		t.Errorf("expected opt-out to drop OPV-0, got %d reminders", len(got))
	}

	if _, err := svc.SetSettings(ctx, "cg-1", Patch{GlobalRemindersEnabled: boolPtr(false)}); err != nil {
		t.Fatalf("SetSettings() error: %v", err)
	}
	got, _ = svc.ListVaccinesNeedingReminder(ctx, "cg-1", childID, now)
	if len(got) != 0 {
		t.Errorf("expected no reminders with global switch off, got %d", len(got))
	}
}

func TestService_ListReminders(t *testing.T) {
	childID := uuid.New()
	now := day(2024, 2, 12)
	lister := &mockLister{records: map[uuid.UUID][]*vaccination.VaccineRecord{childID: {
		record("OPV-0", day(2024, 2, 9), vaccination.StatusPending),
		record("DTaP-1", day(2024, 2, 13), vaccination.StatusPending),
	}}}
	svc := newTestService(NewMemoryStore(), lister, now)

	items, err := svc.ListReminders(context.Background(), "cg-1", childID, now)
	if err != nil {
		t.Fatalf("ListReminders() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(items))
	}
	if items[0].Message != "OPV-0 is overdue by 3 days" || items[0].Status != vaccination.KindOverdue {
		t.Errorf("unexpected first reminder %+v", items[0])
	}
	if items[1].Message != "DTaP-1 is due tomorrow!" || items[1].DueDate != "2024-02-13" {
		t.Errorf("unexpected second reminder %+v", items[1])
	}
}

func TestService_ListReminders_ListerError(t *testing.T) {
	boom := errors.New("db down")
	svc := newTestService(NewMemoryStore(), &mockLister{err: boom}, day(2024, 2, 12))
	if _, err := svc.ListReminders(context.Background(), "cg-1", uuid.New(), day(2024, 2, 12)); !errors.Is(err, boom) {
		t.Errorf("expected wrapped lister error, got %v", err)
	}
}
