package cmd

import (
	"fmt"
	"strings"

	"github.com/safetyline/hsg245-stack/cli/pkg/output"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

func printOverview(r *hsg245.CreateIncidentResult) {
	output.Heading("Part 1: Overview")
	output.Field("Incident ID", r.IncidentID)
	output.Field("Ref No", r.Part1.RefNo)
	output.Field("Incident Type", r.Part1.IncidentType)
	output.Field("What", r.Part1.BriefDetails.What)
	output.Field("Where", r.Part1.BriefDetails.Where)
	output.Field("When", r.Part1.BriefDetails.When)
	output.Field("Who", r.Part1.BriefDetails.Who)
	output.Field("Emergency Measures", r.Part1.BriefDetails.EmergencyMeasures)
	output.Field("Forwarded To", r.Part1.ForwardedTo)
}

func printAssessment(a *hsg245.Assessment) {
	output.Heading("Part 2: Assessment")
	output.Field("Type of Event", a.TypeOfEvent)
	output.Field("Harm", a.ActualPotentialHarm)
	output.Field("RIDDOR Reportable", a.RiddorReportable)
	output.Field("Investigation Level", a.InvestigationLevel)
	if a.Priority != "" {
		output.Field("Priority", output.PriorityColor(a.Priority).Sprint(a.Priority))
	}
	output.Field("Investigation Team", strings.Join(a.InvestigationTeam, ", "))
}

func printInvestigation(inv *hsg245.Investigation) {
	output.Heading("Part 3: Root Cause Analysis")
	output.Field("Summary", inv.IncidentSummary)
	output.Field("Method", inv.AnalysisMethod)
	printCauses("Immediate Causes", inv.ImmediateCauses)
	printCauses("Underlying Causes", inv.UnderlyingCauses)
	printCauses("Root Causes", inv.RootCauses)
}

func printCauses(title string, cs []hsg245.Cause) {
	if len(cs) == 0 {
		return
	}
	output.Info("%s:", title)
	for _, c := range cs {
		fmt.Fprintf(output.Out, "  • %s\n", c.Text)
	}
}

func printActionPlan(p *hsg245.ActionPlan) {
	output.Heading("Part 4: Action Plan")
	if len(p.ControlMeasures) == 0 {
		output.Info("No control measures returned")
		return
	}
	table := output.NewTable([]string{"Horizon", "Measure", "Responsible", "Target"})
	for _, cat := range hsg245.MeasureCategories {
		for _, m := range p.ByCategory(cat) {
			table.AddRow([]string{cat.Label(), m.Measure, m.Responsible, m.TargetDate})
		}
	}
	table.Render()
}

func printIncident(inc *hsg245.Incident) {
	output.Field("Incident ID", inc.IncidentID)
	output.Field("Status", hsg245.StatusLabel(inc.Status))
	output.Field("Created", inc.CreatedAt)
	if inc.Part1 != nil {
		printOverview(&hsg245.CreateIncidentResult{IncidentID: inc.IncidentID, Part1: *inc.Part1})
	}
	if inc.Part2 != nil {
		printAssessment(inc.Part2)
	}
	if inc.Part3 != nil {
		printInvestigation(inc.Part3)
	}
	if inc.Part4 != nil {
		printActionPlan(inc.Part4)
	}
}
