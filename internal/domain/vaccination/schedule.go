package vaccination

// AgeGroup is a named developmental stage at which one or more doses are due.
type AgeGroup string

const (
	AgeBirth        AgeGroup = "Birth"
	Age6Weeks       AgeGroup = "6 Weeks"
	Age10Weeks      AgeGroup = "10 Weeks"
	Age14Weeks      AgeGroup = "14 Weeks"
	Age6Months      AgeGroup = "6 Months"
	Age9Months      AgeGroup = "9 Months"
	Age12Months     AgeGroup = "12 Months"
	Age15Months     AgeGroup = "15 Months"
	Age16To18Months AgeGroup = "16-18 Months"
	Age18Months     AgeGroup = "18 Months"
	Age4To6Years    AgeGroup = "4-6 Years"
)

// AgeGroupSchedule lists the vaccines due at a single age group.
type AgeGroupSchedule struct {
	AgeGroup AgeGroup `json:"age_group"`
	Vaccines []string `json:"vaccines"`
}

// Template is an ordered immunization calendar.
type Template []AgeGroupSchedule

// DefaultTemplate is the calendar every new child profile is seeded with.
var DefaultTemplate = Template{
	{AgeGroup: AgeBirth, Vaccines: []string{"BCG", "Hepatitis B", "OPV-0"}},
	{AgeGroup: Age6Weeks, Vaccines: []string{"DTaP-1", "IPV-1", "Hib-1", "Hepatitis B-2", "Rotavirus-1", "PCV-1"}},
	{AgeGroup: Age10Weeks, Vaccines: []string{"DTaP-2", "IPV-2", "Hib-2", "Rotavirus-2", "PCV-2"}},
	{AgeGroup: Age14Weeks, Vaccines: []string{"DTaP-3", "IPV-3", "Hib-3", "Rotavirus-3", "PCV-3"}},
	{AgeGroup: Age6Months, Vaccines: []string{"Influenza-1", "OPV-1"}},
	{AgeGroup: Age9Months, Vaccines: []string{"MMR-1", "OPV-2"}},
	{AgeGroup: Age12Months, Vaccines: []string{"Hepatitis A-1", "Typhoid Conjugate"}},
	{AgeGroup: Age15Months, Vaccines: []string{"MMR-2", "Varicella-1", "PCV Booster"}},
	{AgeGroup: Age16To18Months, Vaccines: []string{"DTaP Booster-1", "IPV Booster", "Hib Booster"}},
	{AgeGroup: Age18Months, Vaccines: []string{"Hepatitis A-2"}},
	{AgeGroup: Age4To6Years, Vaccines: []string{"DTaP Booster-2"}},
}

// Size returns the number of (age group, vaccine) pairs in the template.
func (t Template) Size() int {
	n := 0
	for _, g := range t {
		n += len(g.Vaccines)
	}
	return n
}

// Validate checks that age groups are unique and all have an offset rule.
func (t Template) Validate() error {
	seen := make(map[AgeGroup]bool, len(t))
	for _, g := range t {
		if seen[g.AgeGroup] {
			return &TemplateError{AgeGroup: g.AgeGroup, Reason: "duplicate age group"}
		}
		seen[g.AgeGroup] = true
		if _, ok := offsets[g.AgeGroup]; !ok {
			return &TemplateError{AgeGroup: g.AgeGroup, Reason: "no offset rule", Err: ErrUnknownAgeGroup}
		}
	}
	return nil
}
