package reminder

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultDaysBefore is the lead time applied when a caregiver has not chosen one.
const DefaultDaysBefore = 2

// ErrInvalidSettings is returned for a settings update that cannot be applied.
var ErrInvalidSettings = errors.New("invalid reminder settings")

// Settings are a caregiver's reminder preferences.
type Settings struct {
	GlobalRemindersEnabled       bool     `json:"global_reminders_enabled"`
	CallRemindersEnabled         bool     `json:"call_reminders_enabled"`
	NotificationRemindersEnabled bool     `json:"notification_reminders_enabled"`
	ReminderDaysBefore           int      `json:"reminder_days_before"`
	DisabledVaccineIDs           []string `json:"disabled_vaccine_ids"`
}

// DefaultSettings is what a caregiver without stored preferences gets.
func DefaultSettings() Settings {
	return Settings{
		GlobalRemindersEnabled:       true,
		CallRemindersEnabled:         true,
		NotificationRemindersEnabled: true,
		ReminderDaysBefore:           DefaultDaysBefore,
		DisabledVaccineIDs:           []string{},
	}
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	GlobalRemindersEnabled       *bool     `json:"global_reminders_enabled,omitempty"`
	CallRemindersEnabled         *bool     `json:"call_reminders_enabled,omitempty"`
	NotificationRemindersEnabled *bool     `json:"notification_reminders_enabled,omitempty"`
	ReminderDaysBefore           *int      `json:"reminder_days_before,omitempty"`
	DisabledVaccineIDs           *[]string `json:"disabled_vaccine_ids,omitempty"`
}

// Validate rejects values no settings record may hold.
func (p Patch) Validate() error {
	if p.ReminderDaysBefore != nil && *p.ReminderDaysBefore < 0 {
		return fmt.Errorf("%w: reminder_days_before must be >= 0, got %d", ErrInvalidSettings, *p.ReminderDaysBefore)
	}
	return nil
}

// Merge returns s with every non-nil field of p applied.
func (s Settings) Merge(p Patch) Settings {
	out := s.clone()
	if p.GlobalRemindersEnabled != nil {
		out.GlobalRemindersEnabled = *p.GlobalRemindersEnabled
	}
	if p.CallRemindersEnabled != nil {
		out.CallRemindersEnabled = *p.CallRemindersEnabled
	}
	if p.NotificationRemindersEnabled != nil {
		out.NotificationRemindersEnabled = *p.NotificationRemindersEnabled
	}
	if p.ReminderDaysBefore != nil {
		out.ReminderDaysBefore = *p.ReminderDaysBefore
	}
	if p.DisabledVaccineIDs != nil {
		out.DisabledVaccineIDs = normalizeIDs(*p.DisabledVaccineIDs)
	}
	return out
}

// IsDisabled reports whether any of keys is in the opt-out set.
func (s Settings) IsDisabled(keys ...string) bool {
	for _, id := range s.DisabledVaccineIDs {
		for _, k := range keys {
			if id == k {
				return true
			}
		}
	}
	return false
}

// WithVaccine returns settings with vaccineID removed from (enabled) or
// added to (disabled) the opt-out set, and whether anything changed.
func (s Settings) WithVaccine(vaccineID string, enabled bool) (Settings, bool) {
	has := s.IsDisabled(vaccineID)
	if enabled != has {
		return s, false
	}
	out := s.clone()
	if enabled {
		kept := make([]string, 0, len(out.DisabledVaccineIDs))
		for _, id := range out.DisabledVaccineIDs {
			if id != vaccineID {
				kept = append(kept, id)
			}
		}
		out.DisabledVaccineIDs = kept
	} else {
		out.DisabledVaccineIDs = normalizeIDs(append(out.DisabledVaccineIDs, vaccineID))
	}
	return out, true
}

func (s Settings) clone() Settings {
	out := s
	out.DisabledVaccineIDs = append([]string{}, s.DisabledVaccineIDs...)
	return out
}

// normalizeIDs dedupes and sorts the opt-out set so stored values compare equal.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
