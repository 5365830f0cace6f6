package seeder

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

var (
	locations = []string{"warehouse loading bay", "production line 2", "site canteen", "car park", "stairwell B", "chemical store", "workshop", "scaffold on the east elevation"}
	hazards   = []string{"a wet floor", "an unsecured pallet", "a trailing cable", "a faulty guard", "a leaking drum", "poor lighting", "a blocked fire exit", "a reversing forklift"}
	outcomes  = []string{"slipped and fell", "was struck on the arm", "twisted an ankle", "inhaled fumes", "narrowly avoided being hit", "cut a hand", "strained a back"}
	injuries  = []string{"", "Bruising to the left arm", "Minor cut to the hand", "Sprained ankle", "Lower back strain", "Headache and nausea"}
	roles     = []string{"Site Manager", "Health & Safety Officer", "Shift Supervisor", "Operations Director"}
)

// Generator builds realistic workflow inputs.
type Generator struct {
	faker      *gofakeit.Faker
	categories []string
	now        func() time.Time
}

// NewGenerator creates a generator. A zero seed picks a random one.
func NewGenerator(seed int64, categories []string) *Generator {
	return &Generator{
		faker:      gofakeit.New(seed),
		categories: categories,
		now:        time.Now,
	}
}

// Incident returns one synthetic incident with every required field filled.
func (g *Generator) Incident() client.WorkflowInput {
	f := g.faker
	worker := f.Name()
	location := f.RandomString(locations)
	hazard := f.RandomString(hazards)
	outcome := f.RandomString(outcomes)
	when := f.DateRange(g.now().AddDate(0, 0, -30), g.now())

	return client.WorkflowInput{
		Overview: hsg245.OverviewInput{
			ReportedBy:        f.Name(),
			DateTime:          when.Format("2006-01-02T15:04"),
			EventCategory:     f.RandomString(g.categories),
			Description:       fmt.Sprintf("%s %s in the %s because of %s.", worker, outcome, location, hazard),
			InjuryDescription: f.RandomString(injuries),
			ForwardedTo:       fmt.Sprintf("%s (%s)", f.Name(), f.RandomString(roles)),
		},
		Assessment: hsg245.AssessmentInput{
			EventType:        f.RandomString([]string{"Accident", "Incident", "Near miss", "Dangerous occurrence"}),
			ActualHarm:       f.RandomString([]string{"Damage only", "Minor", "Serious", "Major"}),
			RiddorReportable: f.RandomString([]string{"Yes", "No", "Unsure"}),
		},
		Investigation: hsg245.InvestigationInput{
			Location:          fmt.Sprintf("%s, %s", location, f.Company()),
			WhoInvolved:       fmt.Sprintf("%s (%s)", worker, f.JobTitle()),
			HowHappened:       fmt.Sprintf("%s %s after encountering %s.", worker, outcome, hazard),
			Activities:        f.Sentence(10),
			WorkingConditions: f.RandomString([]string{"Busy shift, normal staffing", "Night shift, reduced lighting", "Wet weather, outdoor work", ""}),
			SafetyProcedures:  f.RandomString([]string{"Risk assessment in place but not reviewed", "No written procedure", "Procedure followed", ""}),
			Injuries:          f.RandomString(injuries),
		},
	}
}
