package vaccination

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeDueDate(t *testing.T) {
	tests := []struct {
		birth time.Time
		group AgeGroup
		want  time.Time
	}{
		{date(2024, 1, 1), AgeBirth, date(2024, 1, 1)},
		{date(2024, 1, 1), Age6Weeks, date(2024, 2, 12)},
		{date(2024, 1, 1), Age10Weeks, date(2024, 3, 11)},
		{date(2024, 1, 1), Age14Weeks, date(2024, 4, 8)},
		{date(2024, 1, 31), Age6Months, date(2024, 7, 31)},
		{date(2024, 1, 1), Age9Months, date(2024, 10, 1)},
		{date(2024, 1, 1), Age12Months, date(2025, 1, 1)},
		{date(2024, 1, 1), Age16To18Months, date(2025, 6, 1)},
		{date(2024, 1, 1), Age4To6Years, date(2029, 1, 1)},
		// Clamped to the end of the target month.
		{date(2023, 8, 31), Age6Months, date(2024, 2, 29)},
		{date(2024, 2, 29), Age12Months, date(2025, 2, 28)},
	}

	for _, tt := range tests {
		got, err := ComputeDueDate(tt.birth, tt.group)
		if err != nil {
			t.Fatalf("ComputeDueDate(%s, %s) error: %v", tt.birth.Format(time.DateOnly), tt.group, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ComputeDueDate(%s, %s) = %s, want %s",
				tt.birth.Format(time.DateOnly), tt.group, got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
		}
	}
}

func TestComputeDueDate_UnknownAgeGroup(t *testing.T) {
	_, err := ComputeDueDate(date(2024, 1, 1), AgeGroup("3 Weeks"))
	if !errors.Is(err, ErrUnknownAgeGroup) {
		t.Fatalf("expected ErrUnknownAgeGroup, got %v", err)
	}
}

func TestComputeDueDate_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	birth := time.Date(2024, 1, 1, 23, 45, 0, 0, loc)

	got, err := ComputeDueDate(birth, Age6Weeks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(date(2024, 2, 12)) {
		t.Errorf("expected 2024-02-12, got %s", got)
	}
}

func TestComputeDueDate_Deterministic(t *testing.T) {
	birth := date(2023, 5, 17)
	for _, g := range DefaultTemplate {
		a, _ := ComputeDueDate(birth, g.AgeGroup)
		b, _ := ComputeDueDate(birth, g.AgeGroup)
		if !a.Equal(b) {
			t.Errorf("%s: results differ: %s vs %s", g.AgeGroup, a, b)
		}
	}
}

func TestComputeDueDate_MonotonicAcrossTemplate(t *testing.T) {
	for _, birth := range []time.Time{date(2024, 1, 31), date(2023, 2, 28), date(2020, 12, 31)} {
		var prev time.Time
		for i, g := range DefaultTemplate {
			d, err := ComputeDueDate(birth, g.AgeGroup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if i > 0 && d.Before(prev) {
				t.Errorf("birth %s: %s due %s before previous group %s",
					birth.Format(time.DateOnly), g.AgeGroup, d.Format(time.DateOnly), prev.Format(time.DateOnly))
			}
			prev = d
		}
	}
}

func TestAddMonths_Clamp(t *testing.T) {
	tests := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{date(2024, 1, 31), 1, date(2024, 2, 29)},
		{date(2023, 1, 31), 1, date(2023, 2, 28)},
		{date(2024, 3, 31), 1, date(2024, 4, 30)},
		{date(2024, 1, 15), 1, date(2024, 2, 15)},
		{date(2024, 11, 30), 3, date(2025, 2, 28)},
	}
	for _, tt := range tests {
		if got := AddMonths(tt.in, tt.n); !got.Equal(tt.want) {
			t.Errorf("AddMonths(%s, %d) = %s, want %s",
				tt.in.Format(time.DateOnly), tt.n, got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
		}
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(date(2024, 2, 12), date(2024, 2, 12)); got != 0 {
		t.Errorf("same day: expected 0, got %d", got)
	}
	if got := DaysBetween(date(2024, 2, 15), date(2024, 2, 12)); got != -3 {
		t.Errorf("expected -3, got %d", got)
	}
	if got := DaysBetween(date(2024, 2, 28), date(2024, 3, 1)); got != 2 {
		t.Errorf("leap year: expected 2, got %d", got)
	}
	// Time of day does not count.
	from := time.Date(2024, 2, 12, 23, 59, 0, 0, time.UTC)
	if got := DaysBetween(from, date(2024, 2, 13)); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}
