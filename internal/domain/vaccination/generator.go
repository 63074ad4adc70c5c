package vaccination

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generator expands a Template into per-child vaccine records.
type Generator struct {
	template Template
}

// NewGenerator returns a Generator over t. The template is validated up
// front so a missing offset rule fails at startup, not on first use.
func NewGenerator(t Template) (*Generator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Generator{template: t}, nil
}

// Template returns the calendar the generator expands.
func (g *Generator) Template() Template { return g.template }

// Build produces one pending record per (age group, vaccine) pair in
// template order. Nothing is persisted.
func (g *Generator) Build(childID uuid.UUID, birthDate time.Time) ([]*VaccineRecord, error) {
	records := make([]*VaccineRecord, 0, g.template.Size())
	pos := 0
	for _, group := range g.template {
		due, err := ComputeDueDate(birthDate, group.AgeGroup)
		if err != nil {
			return nil, fmt.Errorf("build schedule: %w", err)
		}
		for _, name := range group.Vaccines {
			d := due
			records = append(records, &VaccineRecord{
				ID:       uuid.New(),
				ChildID:  childID,
				Name:     name,
				AgeGroup: group.AgeGroup,
				Position: pos,
				DueDate:  &d,
				Status:   StatusPending,
			})
			pos++
		}
	}
	return records, nil
}
