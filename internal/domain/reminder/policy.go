package reminder

import (
	"fmt"
	"time"

	"github.com/vaxtrack/vaxtrack/internal/domain/vaccination"
)

// IsReminderActive decides whether r should be surfaced as a reminder as of
// now. Opt-outs match either the record id or the vaccine name.
func IsReminderActive(r *vaccination.VaccineRecord, s Settings, now time.Time) bool {
	if r == nil || !s.GlobalRemindersEnabled {
		return false
	}
	if s.IsDisabled(r.ID.String(), r.Name) {
		return false
	}
	return activeFor(vaccination.DeriveStatus(r, now), s)
}

func activeFor(st vaccination.DerivedStatus, s Settings) bool {
	switch st.Kind {
	case vaccination.KindOverdue, vaccination.KindDueToday:
		return true
	case vaccination.KindDueSoon:
		return st.DaysUntilDue <= s.ReminderDaysBefore
	}
	return false
}

// DueMessage phrases a signed day count relative to a due date.
func DueMessage(daysUntilDue int) string {
	switch {
	case daysUntilDue == 0:
		return "due today!"
	case daysUntilDue == 1:
		return "due tomorrow!"
	case daysUntilDue > 1:
		return fmt.Sprintf("due in %d days", daysUntilDue)
	default:
		return fmt.Sprintf("overdue by %d days", -daysUntilDue)
	}
}

// ReminderMessage is the line shown to a caregiver for one vaccine.
func ReminderMessage(vaccineName string, daysUntilDue int) string {
	return vaccineName + " is " + DueMessage(daysUntilDue)
}
