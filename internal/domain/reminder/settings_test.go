package reminder

import (
	"errors"
	"reflect"
	"testing"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if !s.GlobalRemindersEnabled || !s.CallRemindersEnabled || !s.NotificationRemindersEnabled {
		t.Error("expected all channels enabled by default")
	}
	if s.ReminderDaysBefore != 2 {
		t.Errorf("expected 2 days lead time, got %d", s.ReminderDaysBefore)
	}
	if s.DisabledVaccineIDs == nil || len(s.DisabledVaccineIDs) != 0 {
		t.Errorf("expected empty non-nil opt-out set, got %#v", s.DisabledVaccineIDs)
	}
}

func TestMerge_OnlyProvidedFields(t *testing.T) {
	cur := DefaultSettings()
	cur.DisabledVaccineIDs = []string{"BCG"}

	got := cur.Merge(Patch{CallRemindersEnabled: boolPtr(false)})

	want := cur
	want.CallRemindersEnabled = false
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %+v, want %+v", got, want)
	}
}

func TestMerge_NormalizesIDs(t *testing.T) {
	ids := []string{"PCV-1", "BCG", "", "PCV-1"}
	got := DefaultSettings().Merge(Patch{DisabledVaccineIDs: &ids})
	if !reflect.DeepEqual(got.DisabledVaccineIDs, []string{"BCG", "PCV-1"}) {
		t.Errorf("unexpected ids %v", got.DisabledVaccineIDs)
	}

	empty := []string{}
	cleared := got.Merge(Patch{DisabledVaccineIDs: &empty})
	if len(cleared.DisabledVaccineIDs) != 0 {
		t.Errorf("expected opt-outs cleared, got %v", cleared.DisabledVaccineIDs)
	}
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	cur := DefaultSettings()
	cur.DisabledVaccineIDs = []string{"BCG"}
	next := cur.Merge(Patch{})
	next.DisabledVaccineIDs[0] = "changed"
	if cur.DisabledVaccineIDs[0] != "BCG" {
		t.Error("Merge result shares its slice with the receiver")
	}
}

func TestMerge_SequentialEqualsCombined(t *testing.T) {
	ids := []string{"MMR-1"}
	a := Patch{GlobalRemindersEnabled: boolPtr(false), ReminderDaysBefore: intPtr(5)}
	b := Patch{ReminderDaysBefore: intPtr(1), DisabledVaccineIDs: &ids}
	combined := Patch{GlobalRemindersEnabled: boolPtr(false), ReminderDaysBefore: intPtr(1), DisabledVaccineIDs: &ids}

	seq := DefaultSettings().Merge(a).Merge(b)
	one := DefaultSettings().Merge(combined)
	if !reflect.DeepEqual(seq, one) {
		t.Errorf("sequential %+v != combined %+v", seq, one)
	}
}

func TestPatchValidate(t *testing.T) {
	if err := (Patch{ReminderDaysBefore: intPtr(-1)}).Validate(); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings, got %v", err)
	}
	if err := (Patch{ReminderDaysBefore: intPtr(0)}).Validate(); err != nil {
		t.Errorf("zero lead time should be valid, got %v", err)
	}
}

func TestWithVaccine(t *testing.T) {
	s := DefaultSettings()

	off, changed := s.WithVaccine("BCG", false)
	if !changed || !off.IsDisabled("BCG") {
		t.Fatalf("expected BCG disabled, got %+v changed=%v", off, changed)
	}
	if s.IsDisabled("BCG") {
		t.Error("receiver was modified")
	}

	same, changed := off.WithVaccine("BCG", false)
	if changed || !reflect.DeepEqual(same, off) {
		t.Error("repeating a disable should be a no-op")
	}

	on, changed := off.WithVaccine("BCG", true)
	if !changed || on.IsDisabled("BCG") {
		t.Errorf("expected BCG enabled again, got %+v", on)
	}

	if _, changed := s.WithVaccine("BCG", true); changed {
		t.Error("enabling an already enabled vaccine should be a no-op")
	}
}
