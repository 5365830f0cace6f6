package tui

import (
	"fmt"
	"strings"

	"github.com/safetyline/hsg245-stack/cli/internal/wizard"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

var steps = []wizard.Step{wizard.StepOverview, wizard.StepAssessment, wizard.StepInvestigation, wizard.StepActionPlan}

// RenderHeader draws the progress bar, server status and messages.
func RenderHeader(s wizard.State) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("HSG245 Incident Investigation"))
	b.WriteString("  ")
	b.WriteString(renderServer(s.Server))
	b.WriteString("\n")

	parts := make([]string, 0, len(steps))
	for _, st := range steps {
		label := fmt.Sprintf("%d %s", int(st), strings.TrimPrefix(st.Title(), fmt.Sprintf("Part %d: ", int(st))))
		switch {
		case st == s.Step:
			parts = append(parts, currentStyle.Render("● "+label))
		case st < s.Step:
			parts = append(parts, doneStyle.Render("✓ "+label))
		default:
			parts = append(parts, pendingStyle.Render("○ "+label))
		}
	}
	b.WriteString(strings.Join(parts, pendingStyle.Render(" ─ ")))
	b.WriteString("\n")

	if s.IncidentID != "" {
		b.WriteString(labelStyle.Render("Incident: ") + s.IncidentID + "\n")
	}
	if s.Success != "" {
		b.WriteString(successStyle.Render(s.Success) + "\n")
	}
	if s.Error != "" {
		b.WriteString(errorStyle.Render("Error: "+s.Error) + "\n")
	}
	return b.String()
}

func renderServer(status wizard.ServerStatus) string {
	switch status {
	case wizard.StatusOnline:
		return successStyle.Render("● Online")
	case wizard.StatusOffline:
		return errorStyle.Render("● Offline")
	default:
		return pendingStyle.Render("● Checking")
	}
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render(label+":"), value)
}

// RenderOverview shows the Part 1 classification.
func RenderOverview(r *hsg245.CreateIncidentResult) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render("Part 1: Overview") + "\n")
	field(&b, "Ref No", r.Part1.RefNo)
	field(&b, "Incident Type", r.Part1.IncidentType)
	field(&b, "What", r.Part1.BriefDetails.What)
	field(&b, "Where", r.Part1.BriefDetails.Where)
	field(&b, "When", r.Part1.BriefDetails.When)
	field(&b, "Who", r.Part1.BriefDetails.Who)
	field(&b, "Emergency Measures", r.Part1.BriefDetails.EmergencyMeasures)
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderAssessment shows the Part 2 result with the priority coloured.
func RenderAssessment(a *hsg245.Assessment) string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render("Part 2: Assessment") + "\n")
	field(&b, "Type of Event", a.TypeOfEvent)
	field(&b, "Harm", a.ActualPotentialHarm)
	field(&b, "RIDDOR Reportable", a.RiddorReportable)
	field(&b, "Investigation Level", a.InvestigationLevel)
	if a.Priority != "" {
		field(&b, "Priority", priorityStyle(a.Priority).Render(a.Priority))
	}
	if len(a.InvestigationTeam) > 0 {
		field(&b, "Team", strings.Join(a.InvestigationTeam, ", "))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderInvestigation lists the three cause tiers.
func RenderInvestigation(inv *hsg245.Investigation) string {
	if inv == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render("Part 3: Root Cause Analysis") + "\n")
	field(&b, "Summary", inv.IncidentSummary)
	causes(&b, "Immediate Causes", inv.ImmediateCauses)
	causes(&b, "Underlying Causes", inv.UnderlyingCauses)
	causes(&b, "Root Causes", inv.RootCauses)
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func causes(b *strings.Builder, title string, cs []hsg245.Cause) {
	if len(cs) == 0 {
		return
	}
	b.WriteString(labelStyle.Render(title+":") + "\n")
	for _, c := range cs {
		fmt.Fprintf(b, "  • %s\n", c.Text)
	}
}

// RenderActionPlan groups control measures by time horizon.
func RenderActionPlan(p *hsg245.ActionPlan) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render("Part 4: Action Plan") + "\n")
	for _, cat := range hsg245.MeasureCategories {
		ms := p.ByCategory(cat)
		if len(ms) == 0 {
			continue
		}
		b.WriteString(labelStyle.Render(cat.Label()+":") + "\n")
		for _, m := range ms {
			fmt.Fprintf(&b, "  • %s", m.Measure)
			if m.Responsible != "" {
				fmt.Fprintf(&b, " (%s", m.Responsible)
				if m.TargetDate != "" {
					fmt.Fprintf(&b, ", by %s", m.TargetDate)
				}
				b.WriteString(")")
			}
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderResults shows every result gathered so far.
func RenderResults(s wizard.State) string {
	blocks := []string{
		RenderOverview(s.Part1),
		RenderAssessment(s.Part2),
		RenderInvestigation(s.Part3),
		RenderActionPlan(s.Part4),
	}
	out := blocks[:0]
	for _, blk := range blocks {
		if blk != "" {
			out = append(out, blk)
		}
	}
	return strings.Join(out, "\n")
}
