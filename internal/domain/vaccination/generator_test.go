package vaccination

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestDefaultTemplate(t *testing.T) {
	if err := DefaultTemplate.Validate(); err != nil {
		t.Fatalf("DefaultTemplate.Validate() error: %v", err)
	}
	if len(DefaultTemplate) != 11 {
		t.Errorf("expected 11 age groups, got %d", len(DefaultTemplate))
	}
	if DefaultTemplate.Size() != 33 {
		t.Errorf("expected 33 vaccines, got %d", DefaultTemplate.Size())
	}
}

func TestTemplateValidate(t *testing.T) {
	dup := Template{
		{AgeGroup: AgeBirth, Vaccines: []string{"BCG"}},
		{AgeGroup: AgeBirth, Vaccines: []string{"OPV-0"}},
	}
	var te *TemplateError
	if err := dup.Validate(); !errors.As(err, &te) || te.AgeGroup != AgeBirth {
		t.Errorf("expected TemplateError for duplicate group, got %v", err)
	}

	unknown := Template{{AgeGroup: "3 Weeks", Vaccines: []string{"X"}}}
	if err := unknown.Validate(); !errors.Is(err, ErrUnknownAgeGroup) {
		t.Errorf("expected ErrUnknownAgeGroup, got %v", err)
	}
	if _, err := NewGenerator(unknown); err == nil {
		t.Error("expected NewGenerator to reject invalid template")
	}
}

func TestGeneratorBuild(t *testing.T) {
	g, err := NewGenerator(DefaultTemplate)
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}
	childID := uuid.New()
	birth := date(2024, 1, 1)

	records, err := g.Build(childID, birth)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(records) != 33 {
		t.Fatalf("expected 33 records, got %d", len(records))
	}

	ids := make(map[uuid.UUID]bool)
	for i, r := range records {
		if r.ChildID != childID {
			t.Errorf("record %d: wrong child id", i)
		}
		if r.Status != StatusPending || r.CompletedDate != nil {
			t.Errorf("record %d: expected pending with no completion date", i)
		}
		if r.Position != i {
			t.Errorf("record %d: expected position %d, got %d", i, i, r.Position)
		}
		if r.DueDate == nil {
			t.Fatalf("record %d: missing due date", i)
		}
		want, _ := ComputeDueDate(birth, r.AgeGroup)
		if !r.DueDate.Equal(want) {
			t.Errorf("%s: due %s, want %s", r.Name, r.DueDate, want)
		}
		ids[r.ID] = true
	}
	if len(ids) != 33 {
		t.Errorf("expected unique ids, got %d", len(ids))
	}

	// Due dates are independent copies.
	*records[0].DueDate = date(1999, 1, 1)
	if records[1].DueDate.Equal(date(1999, 1, 1)) {
		t.Error("records share a due date pointer")
	}
}
