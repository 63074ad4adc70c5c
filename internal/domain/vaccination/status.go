package vaccination

import (
	"fmt"
	"time"
)

// DueSoonWindow is the number of days ahead of a due date at which a pending
// dose is reported as due soon.
const DueSoonWindow = 7

// StatusKind is the display classification of a dose.
type StatusKind string

const (
	KindCompleted StatusKind = "completed"
	KindOverdue   StatusKind = "overdue"
	KindDueToday  StatusKind = "due_today"
	KindDueSoon   StatusKind = "due_soon"
	KindPending   StatusKind = "pending"
)

var statusKinds = map[StatusKind]bool{
	KindCompleted: true, KindOverdue: true, KindDueToday: true, KindDueSoon: true, KindPending: true,
}

// ParseStatusKind validates a status filter value.
func ParseStatusKind(s string) (StatusKind, error) {
	k := StatusKind(s)
	if !statusKinds[k] {
		return "", fmt.Errorf("invalid status filter: %s", s)
	}
	return k, nil
}

// DerivedStatus is computed from a record and the current date. It is never
// stored. DaysUntilDue is signed (negative when overdue) and is only
// meaningful when HasDueDate is set.
type DerivedStatus struct {
	Kind         StatusKind `json:"kind"`
	DaysUntilDue int        `json:"days_until_due"`
	HasDueDate   bool       `json:"-"`
}

// DeriveStatus classifies r as of now. A record without a due date reports
// pending so one bad row cannot break a list.
func DeriveStatus(r *VaccineRecord, now time.Time) DerivedStatus {
	s, _ := CheckStatus(r, now)
	return s
}

// CheckStatus is DeriveStatus that also returns ErrMalformedRecord when the
// record had to fall back to pending.
func CheckStatus(r *VaccineRecord, now time.Time) (DerivedStatus, error) {
	if r == nil {
		return DerivedStatus{Kind: KindPending}, ErrMalformedRecord
	}
	if r.IsCompleted() {
		s := DerivedStatus{Kind: KindCompleted}
		if r.DueDate != nil {
			s.DaysUntilDue = DaysBetween(now, *r.DueDate)
			s.HasDueDate = true
		}
		return s, nil
	}
	if r.DueDate == nil || r.DueDate.IsZero() {
		return DerivedStatus{Kind: KindPending}, fmt.Errorf("%w: %s has no due date", ErrMalformedRecord, r.ID)
	}

	days := DaysBetween(now, *r.DueDate)
	s := DerivedStatus{DaysUntilDue: days, HasDueDate: true}
	switch {
	case days < 0:
		s.Kind = KindOverdue
	case days == 0:
		s.Kind = KindDueToday
	case days <= DueSoonWindow:
		s.Kind = KindDueSoon
	default:
		s.Kind = KindPending
	}
	return s, nil
}
