package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/cli/internal/wizard"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// Runner drives a wizard from the terminal. Drafts survive Back so the user
// can correct and resubmit a step.
type Runner struct {
	Wizard    *wizard.Wizard
	ReportDir string
	Out       io.Writer

	Overview      hsg245.OverviewInput
	Assessment    hsg245.AssessmentInput
	Investigation hsg245.InvestigationInput

	// RunForm, Choose and Busy default to interactive huh widgets.
	RunForm func(ctx context.Context, f *huh.Form) error
	Choose  func(ctx context.Context, finalStep bool) (string, error)
	Busy    func(ctx context.Context, title string, action func()) error
}

func NewRunner(w *wizard.Wizard, reportDir string, out io.Writer) *Runner {
	r := &Runner{
		Wizard:    w,
		ReportDir: reportDir,
		Out:       out,
		Overview:  hsg245.OverviewInput{DateTime: time.Now().Format(dateTimeLayout)},
		Assessment: hsg245.AssessmentInput{
			RiddorReportable: "Unsure",
		},
	}
	r.RunForm = func(ctx context.Context, f *huh.Form) error { return f.RunWithContext(ctx) }
	r.Choose = func(ctx context.Context, finalStep bool) (string, error) {
		choice := NavContinue
		if finalStep {
			choice = NavReport
		}
		err := r.RunForm(ctx, NavForm(finalStep, &choice))
		return choice, err
	}
	r.Busy = func(ctx context.Context, title string, action func()) error {
		return spinner.New().Context(ctx).Title(" " + title).Action(action).Run()
	}
	return r
}

// Run loops until the user quits or ctx is cancelled. Aborting a form
// (ctrl+c) is a normal exit.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		s := r.Wizard.Snapshot()
		fmt.Fprintln(r.Out, RenderHeader(s))
		if res := RenderResults(s); res != "" {
			fmt.Fprintln(r.Out, res)
		}

		done, err := r.step(ctx, s)
		if errors.Is(err, huh.ErrUserAborted) || done {
			return nil
		}
		if err != nil {
			r.report(err)
		}
	}
}

func (r *Runner) step(ctx context.Context, s wizard.State) (bool, error) {
	if s.Step != wizard.StepOverview {
		choice, err := r.Choose(ctx, s.Step == wizard.StepActionPlan)
		if err != nil {
			return false, err
		}
		switch choice {
		case NavQuit:
			return true, nil
		case NavBack:
			r.Wizard.Back()
			return false, nil
		case NavReport:
			return false, r.busy(ctx, "Generating PDF report...", func() error {
				path, err := r.Wizard.GeneratePDF(ctx, r.ReportDir)
				if err == nil {
					fmt.Fprintf(r.Out, "Saved %s\n", path)
				}
				return err
			})
		}
	}

	switch s.Step {
	case wizard.StepOverview:
		if err := r.RunForm(ctx, OverviewForm(&r.Overview)); err != nil {
			return false, err
		}
		return false, r.busy(ctx, "Classifying incident...", func() error {
			return r.Wizard.SubmitOverview(ctx, r.Overview)
		})
	case wizard.StepAssessment:
		if err := r.RunForm(ctx, AssessmentForm(&r.Assessment)); err != nil {
			return false, err
		}
		return false, r.busy(ctx, "Assessing severity...", func() error {
			return r.Wizard.SubmitAssessment(ctx, r.Assessment)
		})
	case wizard.StepInvestigation:
		if err := r.RunForm(ctx, InvestigationForm(&r.Investigation)); err != nil {
			return false, err
		}
		return false, r.busy(ctx, "Running root cause analysis...", func() error {
			return r.Wizard.SubmitInvestigation(ctx, r.Investigation)
		})
	}
	return false, nil
}

func (r *Runner) busy(ctx context.Context, title string, fn func() error) error {
	var err error
	if serr := r.Busy(ctx, title, func() { err = fn() }); serr != nil {
		return serr
	}
	return err
}

// report prints errors the wizard state does not already show.
func (r *Runner) report(err error) {
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) {
		return
	}
	fmt.Fprintln(r.Out, errorStyle.Render(err.Error()))
}
