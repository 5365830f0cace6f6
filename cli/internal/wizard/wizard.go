// Package wizard is the four-step HSG245 investigation state machine. It owns
// no I/O of its own: every backend call goes through an IncidentService, and
// renderers read state through Snapshot.
package wizard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

var (
	ErrBusy          = errors.New("a request is already in progress")
	ErrWrongStep     = errors.New("action not available on the current step")
	ErrServerOffline = errors.New("server is offline")
	ErrNoIncident    = errors.New("no incident has been created yet")
)

// ErrMissingIncidentID means Part 1 succeeded without an incident id.
var ErrMissingIncidentID = errors.New("backend did not return an incident id")

// Step is a wizard page, 1 through 4.
type Step int

const (
	StepOverview Step = iota + 1
	StepAssessment
	StepInvestigation
	StepActionPlan
)

func (s Step) Title() string {
	switch s {
	case StepOverview:
		return "Part 1: Overview"
	case StepAssessment:
		return "Part 2: Assessment"
	case StepInvestigation:
		return "Part 3: Investigation"
	case StepActionPlan:
		return "Part 4: Action Plan"
	default:
		return "Unknown"
	}
}

// ServerStatus mirrors the health indicator.
type ServerStatus string

const (
	StatusChecking ServerStatus = "checking"
	StatusOnline   ServerStatus = "online"
	StatusOffline  ServerStatus = "offline"
)

// IncidentService is the subset of the API client the wizard drives.
type IncidentService interface {
	CheckHealth(ctx context.Context) client.HealthReport
	CreateIncident(ctx context.Context, in hsg245.OverviewInput) (*hsg245.CreateIncidentResult, error)
	AddAssessment(ctx context.Context, incidentID string, in hsg245.AssessmentInput) (*hsg245.Assessment, error)
	InvestigateIncident(ctx context.Context, incidentID string, in hsg245.InvestigationInput) (*hsg245.Investigation, error)
	GenerateActionPlan(ctx context.Context, incidentID string) (*hsg245.ActionPlan, error)
	GeneratePDFReport(ctx context.Context, incidentID string) (*client.Report, error)
}

// Success messages shown between a completed call and the step change.
const (
	MsgPart1Done      = "Part 1 completed! AI has classified the incident."
	MsgPart2Done      = "Part 2 completed! Severity and investigation level determined."
	MsgRootCauseDone  = "Root cause analysis complete! Generating action plan..."
	MsgInvestigation  = "Investigation complete! All parts finished."
	MsgPDFDownloaded  = "PDF report downloaded successfully!"
	fallbackPart1     = "Failed to process Part 1"
	fallbackPart2     = "Failed to process Part 2"
	fallbackPart3     = "Failed to complete investigation"
	fallbackPDFExport = "Failed to generate PDF"
)

// Options tunes the cosmetic delays. Zero values take the defaults.
type Options struct {
	SuccessDelay    time.Duration // default 1.5s
	ChainDelay      time.Duration // default 1s, between investigate and action plan
	PDFMessageDelay time.Duration // default 3s

	// Sleep replaces the context-aware timer; tests pass a no-op.
	Sleep func(ctx context.Context, d time.Duration)
	// AfterFunc schedules the PDF message clear; defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

func (o *Options) setDefaults() {
	if o.SuccessDelay == 0 {
		o.SuccessDelay = 1500 * time.Millisecond
	}
	if o.ChainDelay == 0 {
		o.ChainDelay = time.Second
	}
	if o.PDFMessageDelay == 0 {
		o.PDFMessageDelay = 3 * time.Second
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
}

// State is a copy of the wizard state for rendering.
type State struct {
	Step       Step
	Visited    []Step
	IncidentID string
	Part1      *hsg245.CreateIncidentResult
	Part2      *hsg245.Assessment
	Part3      *hsg245.Investigation
	Part4      *hsg245.ActionPlan
	Server     ServerStatus
	Busy       bool
	Error      string
	Success    string
	ReportPath string
}

// Wizard is safe for concurrent use; at most one submission runs at a time.
type Wizard struct {
	svc  IncidentService
	opts Options

	mu     sync.Mutex
	state  State
	msgGen uint64
	claims uint64

	// advancing is set while a successful submission waits to change step.
	// Busy is already clear then, but a second submission is refused.
	advancing bool
}

func New(svc IncidentService, opts Options) *Wizard {
	opts.setDefaults()
	return &Wizard{
		svc:  svc,
		opts: opts,
		state: State{
			Step:    StepOverview,
			Visited: []Step{StepOverview},
			Server:  StatusChecking,
		},
	}
}

// Snapshot returns a copy of the current state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.state
	s.Visited = slices.Clone(w.state.Visited)
	return s
}

// SetServerStatus is the health monitor's callback.
func (w *Wizard) SetServerStatus(s ServerStatus) {
	w.mu.Lock()
	w.state.Server = s
	w.mu.Unlock()
}

// Back moves one step towards Part 1. Results already fetched are kept.
func (w *Wizard) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Step > StepOverview && !w.state.Busy {
		w.state.Step--
		w.state.Error = ""
	}
	return w.state.Step
}

// SubmitOverview creates the incident and moves to Part 2.
func (w *Wizard) SubmitOverview(ctx context.Context, in hsg245.OverviewInput) error {
	if err := validate("part1", in.Missing()); err != nil {
		return err
	}
	claim, err := w.begin(StepOverview, false)
	if err != nil {
		return err
	}
	defer w.end(claim)

	res, err := w.svc.CreateIncident(ctx, in)
	if err == nil && (res == nil || res.IncidentID == "") {
		err = ErrMissingIncidentID
	}
	if err != nil {
		return w.fail(err, fallbackPart1)
	}

	w.update(func(s *State) {
		s.IncidentID = res.IncidentID
		s.Part1 = res
		s.Success = MsgPart1Done
	})
	w.advance(ctx, StepOverview, StepAssessment)
	return nil
}

// SubmitAssessment records Part 2 and moves to Part 3.
func (w *Wizard) SubmitAssessment(ctx context.Context, in hsg245.AssessmentInput) error {
	if err := validate("part2", in.Missing()); err != nil {
		return err
	}
	claim, err := w.begin(StepAssessment, true)
	if err != nil {
		return err
	}
	defer w.end(claim)

	res, err := w.svc.AddAssessment(ctx, w.incidentID(), in)
	if err != nil {
		return w.fail(err, fallbackPart2)
	}

	w.update(func(s *State) {
		s.Part2 = res
		s.Success = MsgPart2Done
	})
	w.advance(ctx, StepAssessment, StepInvestigation)
	return nil
}

// SubmitInvestigation runs the root-cause analysis, then the action plan,
// and only then moves to Part 4. A failure in either call stays on Part 3.
func (w *Wizard) SubmitInvestigation(ctx context.Context, in hsg245.InvestigationInput) error {
	if err := validate("part3", in.Missing()); err != nil {
		return err
	}
	claim, err := w.begin(StepInvestigation, true)
	if err != nil {
		return err
	}
	defer w.end(claim)

	id := w.incidentID()
	inv, err := w.svc.InvestigateIncident(ctx, id, in)
	if err != nil {
		return w.fail(err, fallbackPart3)
	}
	w.update(func(s *State) {
		s.Part3 = inv
		s.Success = MsgRootCauseDone
	})

	w.opts.Sleep(ctx, w.opts.ChainDelay)

	plan, err := w.svc.GenerateActionPlan(ctx, id)
	if err != nil {
		return w.fail(err, fallbackPart3)
	}
	w.update(func(s *State) {
		s.Part4 = plan
		s.Success = MsgInvestigation
	})
	w.advance(ctx, StepInvestigation, StepActionPlan)
	return nil
}

// GeneratePDF fetches the report and saves it into dir. The success message
// clears itself after PDFMessageDelay.
func (w *Wizard) GeneratePDF(ctx context.Context, dir string) (string, error) {
	claim, err := w.begin(StepActionPlan, true)
	if err != nil {
		return "", err
	}
	defer w.end(claim)

	report, err := w.svc.GeneratePDFReport(ctx, w.incidentID())
	if err != nil {
		return "", w.fail(err, fallbackPDFExport)
	}
	path, err := report.Save(dir)
	if err != nil {
		return "", w.fail(err, fallbackPDFExport)
	}

	gen := w.update(func(s *State) {
		s.ReportPath = path
		s.Success = MsgPDFDownloaded
	})
	w.opts.AfterFunc(w.opts.PDFMessageDelay, func() { w.clearSuccess(gen) })
	return path, nil
}

// begin claims the busy flag for a submission on step. The returned claim is
// handed back to end.
func (w *Wizard) begin(step Step, needIncident bool) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state.Busy, w.advancing:
		return 0, ErrBusy
	case w.state.Step != step:
		return 0, ErrWrongStep
	case w.state.Server == StatusOffline:
		return 0, ErrServerOffline
	case needIncident && w.state.IncidentID == "":
		return 0, ErrNoIncident
	}

	w.claims++
	w.state.Busy = true
	w.state.Error = ""
	w.state.Success = ""
	w.msgGen++
	return w.claims, nil
}

// end releases the busy flag unless a later submission has claimed it.
func (w *Wizard) end(claim uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.claims == claim {
		w.state.Busy = false
	}
}

func (w *Wizard) incidentID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.IncidentID
}

// update applies f under the lock and returns the message generation it wrote.
func (w *Wizard) update(f func(*State)) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	f(&w.state)
	w.msgGen++
	return w.msgGen
}

func (w *Wizard) fail(err error, fallback string) error {
	msg := err.Error()
	if msg == "" {
		msg = fallback
	}
	w.update(func(s *State) {
		s.Error = msg
		s.Success = ""
	})
	return err
}

// advance releases the busy flag, waits out the success message, then moves
// from -> next. If Back moved away from from during the wait, the step is left alone.
func (w *Wizard) advance(ctx context.Context, from, next Step) {
	w.mu.Lock()
	w.state.Busy = false
	w.advancing = true
	w.mu.Unlock()

	w.opts.Sleep(ctx, w.opts.SuccessDelay)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.advancing = false
	w.msgGen++
	w.state.Success = ""
	if w.state.Step != from {
		return
	}
	w.state.Step = next
	if !slices.Contains(w.state.Visited, next) {
		w.state.Visited = append(w.state.Visited, next)
	}
}

// clearSuccess drops the message only if nothing has been written since gen.
func (w *Wizard) clearSuccess(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.msgGen == gen {
		w.state.Success = ""
	}
}

func validate(part string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &client.ValidationError{Part: part, Fields: missing}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
