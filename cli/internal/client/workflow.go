package client

import (
	"context"
	"fmt"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// WorkflowInput is everything a full investigation needs up front.
type WorkflowInput struct {
	Overview      hsg245.OverviewInput      `yaml:"overview" json:"overview"`
	Assessment    hsg245.AssessmentInput    `yaml:"assessment" json:"assessment"`
	Investigation hsg245.InvestigationInput `yaml:"investigation" json:"investigation"`
}

// WorkflowResult collects each part as it completes. On failure it holds
// whatever finished before the failing step.
type WorkflowResult struct {
	IncidentID string                       `json:"incident_id"`
	Part1      *hsg245.CreateIncidentResult `json:"part1,omitempty"`
	Part2      *hsg245.Assessment           `json:"part2,omitempty"`
	Part3      *hsg245.Investigation        `json:"part3,omitempty"`
	Part4      *hsg245.ActionPlan           `json:"part4,omitempty"`
	ReportPath string                       `json:"report_path,omitempty"`
}

// WorkflowStep names a stage of RunCompleteWorkflow for progress callbacks.
type WorkflowStep string

const (
	StepOverview      WorkflowStep = "overview"
	StepAssessment    WorkflowStep = "assessment"
	StepInvestigation WorkflowStep = "investigation"
	StepActionPlan    WorkflowStep = "action_plan"
	StepReport        WorkflowStep = "report"
)

// RunCompleteWorkflow runs parts 1-4 then the PDF export, stopping at the
// first failure. An empty reportDir skips saving the PDF. progress may be nil.
func (c *IncidentClient) RunCompleteWorkflow(ctx context.Context, in WorkflowInput, reportDir string, progress func(WorkflowStep)) (*WorkflowResult, error) {
	notify := func(s WorkflowStep) {
		if progress != nil {
			progress(s)
		}
	}
	res := &WorkflowResult{}

	notify(StepOverview)
	p1, err := c.CreateIncident(ctx, in.Overview)
	if err != nil {
		return res, fmt.Errorf("part 1: %w", err)
	}
	res.Part1 = p1
	res.IncidentID = p1.IncidentID

	notify(StepAssessment)
	if res.Part2, err = c.AddAssessment(ctx, res.IncidentID, in.Assessment); err != nil {
		return res, fmt.Errorf("part 2: %w", err)
	}

	notify(StepInvestigation)
	if res.Part3, err = c.InvestigateIncident(ctx, res.IncidentID, in.Investigation); err != nil {
		return res, fmt.Errorf("part 3: %w", err)
	}

	notify(StepActionPlan)
	if res.Part4, err = c.GenerateActionPlan(ctx, res.IncidentID); err != nil {
		return res, fmt.Errorf("part 4: %w", err)
	}

	if reportDir == "" {
		return res, nil
	}

	notify(StepReport)
	report, err := c.GeneratePDFReport(ctx, res.IncidentID)
	if err != nil {
		return res, fmt.Errorf("report: %w", err)
	}
	if res.ReportPath, err = report.Save(reportDir); err != nil {
		return res, fmt.Errorf("report: %w", err)
	}
	return res, nil
}
