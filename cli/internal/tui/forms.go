package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// Form options. Values are sent to the backend verbatim.
var (
	EventCategories = []string{
		"Incident (Near-miss / Undesired circumstance)",
		"Injury",
		"Ill health",
		"Dangerous occurrence",
	}
	EventTypes       = []string{"Accident", "Incident", "Near miss", "Dangerous occurrence"}
	HarmLevels       = []string{"Damage only", "Minor", "Serious", "Major", "Fatality"}
	RiddorAnswers    = []string{"Yes", "No", "Unsure"}
	dateTimeLayout   = "2006-01-02T15:04"
	errFieldRequired = errors.New("this field is required")
)

// Navigation choices offered before steps 2-4.
const (
	NavContinue = "continue"
	NavBack     = "back"
	NavQuit     = "quit"
	NavReport   = "report"
)

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errFieldRequired
	}
	return nil
}

func options(values []string) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(values))
	for _, v := range values {
		out = append(out, huh.NewOption(v, v))
	}
	return out
}

// OverviewForm collects Part 1.
func OverviewForm(in *hsg245.OverviewInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reported By").
				Placeholder("Full name").
				Value(&in.ReportedBy).
				Validate(required),
			huh.NewInput().
				Title("Date & Time").
				Description("YYYY-MM-DDTHH:MM").
				Value(&in.DateTime).
				Validate(required),
			huh.NewSelect[string]().
				Title("Event Category").
				Options(options(EventCategories)...).
				Value(&in.EventCategory),
		),
		huh.NewGroup(
			huh.NewText().
				Title("What happened?").
				Description("Describe the event in your own words").
				Value(&in.Description).
				Validate(required),
			huh.NewText().
				Title("Injury Description").
				Description("Optional").
				Value(&in.InjuryDescription),
			huh.NewInput().
				Title("Forwarded To").
				Description("Optional").
				Value(&in.ForwardedTo),
		),
	).WithTheme(hsg245Theme()).WithShowHelp(false)
}

// AssessmentForm collects Part 2.
func AssessmentForm(in *hsg245.AssessmentInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Type of Event").
				Options(options(EventTypes)...).
				Value(&in.EventType),
			huh.NewSelect[string]().
				Title("Actual or Potential Harm").
				Options(options(HarmLevels)...).
				Value(&in.ActualHarm),
			huh.NewSelect[string]().
				Title("RIDDOR Reportable?").
				Description("Unsure lets the assessment decide").
				Options(options(RiddorAnswers)...).
				Value(&in.RiddorReportable),
		),
	).WithTheme(hsg245Theme()).WithShowHelp(false)
}

// InvestigationForm collects the seven Part 3 answers.
func InvestigationForm(in *hsg245.InvestigationInput) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Where did it happen?").Value(&in.Location).Validate(required),
			huh.NewInput().Title("Who was involved?").Value(&in.WhoInvolved).Validate(required),
			huh.NewText().Title("How did it happen?").Value(&in.HowHappened).Validate(required),
		),
		huh.NewGroup(
			huh.NewText().Title("What activities were being carried out?").Description("Optional").Value(&in.Activities),
			huh.NewText().Title("What were the working conditions?").Description("Optional").Value(&in.WorkingConditions),
			huh.NewText().Title("Were safety procedures followed?").Description("Optional").Value(&in.SafetyProcedures),
			huh.NewText().Title("What injuries or damage resulted?").Description("Optional").Value(&in.Injuries),
		),
	).WithTheme(hsg245Theme()).WithShowHelp(false)
}

// NavForm asks what to do next. Step 4 offers the report instead of continue.
func NavForm(finalStep bool, choice *string) *huh.Form {
	opts := []huh.Option[string]{huh.NewOption("Continue", NavContinue)}
	if finalStep {
		opts = []huh.Option[string]{huh.NewOption("Download PDF report", NavReport)}
	}
	opts = append(opts,
		huh.NewOption("Back", NavBack),
		huh.NewOption("Quit", NavQuit),
	)
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Next").
				Options(opts...).
				Value(choice),
		),
	).WithTheme(hsg245Theme()).WithShowHelp(false)
}
