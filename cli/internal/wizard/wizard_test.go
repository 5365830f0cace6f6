package wizard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CheckHealth(ctx context.Context) client.HealthReport {
	return m.Called(ctx).Get(0).(client.HealthReport)
}

func (m *mockService) CreateIncident(ctx context.Context, in hsg245.OverviewInput) (*hsg245.CreateIncidentResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*hsg245.CreateIncidentResult)
	return res, args.Error(1)
}

func (m *mockService) AddAssessment(ctx context.Context, id string, in hsg245.AssessmentInput) (*hsg245.Assessment, error) {
	args := m.Called(ctx, id, in)
	res, _ := args.Get(0).(*hsg245.Assessment)
	return res, args.Error(1)
}

func (m *mockService) InvestigateIncident(ctx context.Context, id string, in hsg245.InvestigationInput) (*hsg245.Investigation, error) {
	args := m.Called(ctx, id, in)
	res, _ := args.Get(0).(*hsg245.Investigation)
	return res, args.Error(1)
}

func (m *mockService) GenerateActionPlan(ctx context.Context, id string) (*hsg245.ActionPlan, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*hsg245.ActionPlan)
	return res, args.Error(1)
}

func (m *mockService) GeneratePDFReport(ctx context.Context, id string) (*client.Report, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*client.Report)
	return res, args.Error(1)
}

// sleepRecorder captures requested delays and the state at each pause.
type sleepRecorder struct {
	w      *Wizard
	delays []time.Duration
	seen   []State
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	r.delays = append(r.delays, d)
	r.seen = append(r.seen, r.w.Snapshot())
}

func newTestWizard(svc IncidentService) (*Wizard, *sleepRecorder) {
	rec := &sleepRecorder{}
	w := New(svc, Options{
		Sleep:     rec.sleep,
		AfterFunc: func(time.Duration, func()) {},
	})
	rec.w = w
	w.SetServerStatus(StatusOnline)
	return w, rec
}

var (
	overview      = hsg245.OverviewInput{ReportedBy: "Jane Doe", DateTime: "2024-01-01T10:00", EventCategory: "Injury", Description: "Slip on wet floor"}
	assessment    = hsg245.AssessmentInput{EventType: "Accident", ActualHarm: "Minor", RiddorReportable: "Unsure"}
	investigation = hsg245.InvestigationInput{Location: "Warehouse", WhoInvolved: "Bob", HowHappened: "Slipped"}
)

func TestNew(t *testing.T) {
	w := New(&mockService{}, Options{})
	s := w.Snapshot()
	assert.Equal(t, StepOverview, s.Step)
	assert.Equal(t, []Step{StepOverview}, s.Visited)
	assert.Equal(t, StatusChecking, s.Server)
	assert.Equal(t, 1500*time.Millisecond, w.opts.SuccessDelay)
	assert.Equal(t, time.Second, w.opts.ChainDelay)
	assert.Equal(t, 3*time.Second, w.opts.PDFMessageDelay)
}

func TestSubmitOverview_StoresIDAndAdvancesAfterDelay(t *testing.T) {
	svc := &mockService{}
	svc.On("CreateIncident", mock.Anything, overview).Return(&hsg245.CreateIncidentResult{
		IncidentID: "INC-001",
		Part1:      hsg245.Overview{IncidentType: "Injury"},
	}, nil)
	w, rec := newTestWizard(svc)

	require.NoError(t, w.SubmitOverview(context.Background(), overview))

	require.Equal(t, []time.Duration{1500 * time.Millisecond}, rec.delays)
	during := rec.seen[0]
	assert.Equal(t, StepOverview, during.Step, "step changes only after the delay")
	assert.Equal(t, MsgPart1Done, during.Success)
	assert.False(t, during.Busy, "busy clears before the success delay")

	s := w.Snapshot()
	assert.Equal(t, StepAssessment, s.Step)
	assert.Equal(t, "INC-001", s.IncidentID)
	assert.Equal(t, "Injury", s.Part1.Part1.IncidentType)
	assert.Empty(t, s.Success)
	assert.False(t, s.Busy)
	assert.Equal(t, []Step{StepOverview, StepAssessment}, s.Visited)
	svc.AssertExpectations(t)
}

func TestSubmitOverview_FailureKeepsStep(t *testing.T) {
	svc := &mockService{}
	svc.On("CreateIncident", mock.Anything, overview).
		Return(nil, &client.RequestError{StatusCode: 500, Message: "Backend API error", Details: "db down"})
	w, rec := newTestWizard(svc)

	err := w.SubmitOverview(context.Background(), overview)
	require.Error(t, err)

	s := w.Snapshot()
	assert.Equal(t, StepOverview, s.Step)
	assert.Equal(t, "Backend API error: db down", s.Error)
	assert.False(t, s.Busy)
	assert.Empty(t, rec.delays)
}

func TestSubmitOverview_MissingIncidentIDStaysOnStep1(t *testing.T) {
	svc := &mockService{}
	svc.On("CreateIncident", mock.Anything, overview).
		Return(&hsg245.CreateIncidentResult{Part1: hsg245.Overview{IncidentType: "Injury"}}, nil)
	w, rec := newTestWizard(svc)

	err := w.SubmitOverview(context.Background(), overview)
	require.ErrorIs(t, err, ErrMissingIncidentID)

	s := w.Snapshot()
	assert.Equal(t, StepOverview, s.Step)
	assert.Empty(t, s.IncidentID)
	assert.Nil(t, s.Part1)
	assert.Empty(t, s.Success)
	assert.Equal(t, ErrMissingIncidentID.Error(), s.Error)
	assert.Equal(t, []Step{StepOverview}, s.Visited)
	assert.Empty(t, rec.delays)
}

func TestSubmit_ValidationBeforeCall(t *testing.T) {
	svc := &mockService{}
	w, _ := newTestWizard(svc)

	err := w.SubmitOverview(context.Background(), hsg245.OverviewInput{ReportedBy: "Jane"})
	var verr *client.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"date_time", "event_category", "description"}, verr.Fields)
	svc.AssertNotCalled(t, "CreateIncident", mock.Anything, mock.Anything)
}

func TestSubmit_Guards(t *testing.T) {
	svc := &mockService{}
	w, _ := newTestWizard(svc)
	ctx := context.Background()

	assert.ErrorIs(t, w.SubmitAssessment(ctx, assessment), ErrWrongStep)
	_, err := w.GeneratePDF(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrWrongStep)

	w.SetServerStatus(StatusOffline)
	assert.ErrorIs(t, w.SubmitOverview(ctx, overview), ErrServerOffline)

	w.SetServerStatus(StatusOnline)
	w.mu.Lock()
	w.state.Step = StepAssessment
	w.mu.Unlock()
	assert.ErrorIs(t, w.SubmitAssessment(ctx, assessment), ErrNoIncident)
}

func TestSubmit_RejectsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	svc := &mockService{}
	svc.On("CreateIncident", mock.Anything, overview).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(&hsg245.CreateIncidentResult{IncidentID: "INC-1"}, nil).Once()
	w, _ := newTestWizard(svc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.SubmitOverview(context.Background(), overview))
	}()

	<-started
	assert.True(t, w.Snapshot().Busy)
	assert.ErrorIs(t, w.SubmitOverview(context.Background(), overview), ErrBusy)
	close(release)
	wg.Wait()

	svc.AssertNumberOfCalls(t, "CreateIncident", 1)
}

func atStep(w *Wizard, step Step, id string) {
	w.mu.Lock()
	w.state.Step = step
	w.state.IncidentID = id
	w.mu.Unlock()
}

func TestSubmitAssessment(t *testing.T) {
	svc := &mockService{}
	svc.On("AddAssessment", mock.Anything, "INC-1", assessment).Return(&hsg245.Assessment{Priority: "High"}, nil)
	w, _ := newTestWizard(svc)
	atStep(w, StepAssessment, "INC-1")

	require.NoError(t, w.SubmitAssessment(context.Background(), assessment))
	s := w.Snapshot()
	assert.Equal(t, StepInvestigation, s.Step)
	assert.Equal(t, "High", s.Part2.Priority)
}

func TestSubmitInvestigation_ChainsActionPlan(t *testing.T) {
	svc := &mockService{}
	svc.On("InvestigateIncident", mock.Anything, "INC-1", investigation).
		Return(&hsg245.Investigation{RootCauses: []hsg245.Cause{{Text: "No mats"}}}, nil)
	svc.On("GenerateActionPlan", mock.Anything, "INC-1").
		Return(&hsg245.ActionPlan{ControlMeasures: []hsg245.ControlMeasure{{Measure: "Mats", Category: hsg245.MeasureImmediate}}}, nil)
	w, rec := newTestWizard(svc)
	atStep(w, StepInvestigation, "INC-1")

	require.NoError(t, w.SubmitInvestigation(context.Background(), investigation))

	require.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, rec.delays)
	assert.Equal(t, MsgRootCauseDone, rec.seen[0].Success)
	assert.Nil(t, rec.seen[0].Part4)
	assert.Equal(t, StepInvestigation, rec.seen[1].Step)
	assert.Equal(t, MsgInvestigation, rec.seen[1].Success)

	s := w.Snapshot()
	assert.Equal(t, StepActionPlan, s.Step)
	assert.Equal(t, "No mats", s.Part3.RootCauses[0].Text)
	assert.Len(t, s.Part4.ControlMeasures, 1)
}

func TestSubmitInvestigation_InvestigateFailureStaysOnStep3(t *testing.T) {
	svc := &mockService{}
	svc.On("InvestigateIncident", mock.Anything, "INC-1", investigation).
		Return(nil, &client.RequestError{StatusCode: 500, Message: "Backend API error", Details: "rootcause agent failed"})
	w, rec := newTestWizard(svc)
	atStep(w, StepInvestigation, "INC-1")

	require.Error(t, w.SubmitInvestigation(context.Background(), investigation))

	s := w.Snapshot()
	assert.Equal(t, StepInvestigation, s.Step)
	assert.Equal(t, "Backend API error: rootcause agent failed", s.Error)
	assert.Empty(t, s.Success)
	assert.Nil(t, s.Part3)
	assert.Nil(t, s.Part4)
	assert.False(t, s.Busy)
	assert.Empty(t, rec.delays, "no chain pause after a failed investigation")
	svc.AssertNotCalled(t, "GenerateActionPlan", mock.Anything, mock.Anything)
}

func TestSubmitInvestigation_ActionPlanFailureStaysOnStep3(t *testing.T) {
	svc := &mockService{}
	svc.On("InvestigateIncident", mock.Anything, "INC-1", investigation).Return(&hsg245.Investigation{}, nil)
	svc.On("GenerateActionPlan", mock.Anything, "INC-1").Return(nil, errors.New("HTTP 504: Gateway Timeout"))
	w, _ := newTestWizard(svc)
	atStep(w, StepInvestigation, "INC-1")

	require.Error(t, w.SubmitInvestigation(context.Background(), investigation))
	s := w.Snapshot()
	assert.Equal(t, StepInvestigation, s.Step)
	assert.Equal(t, "HTTP 504: Gateway Timeout", s.Error)
	assert.NotNil(t, s.Part3)
	assert.Nil(t, s.Part4)
}

func TestSuccessDelay_AllowsBackButRefusesResubmit(t *testing.T) {
	svc := &mockService{}
	svc.On("AddAssessment", mock.Anything, "INC-1", assessment).
		Return(&hsg245.Assessment{Priority: "High"}, nil).Once()

	var w *Wizard
	var resubmitErr error
	var backTo Step
	var busy bool
	w = New(svc, Options{
		Sleep: func(ctx context.Context, _ time.Duration) {
			busy = w.Snapshot().Busy
			resubmitErr = w.SubmitAssessment(ctx, assessment)
			backTo = w.Back()
		},
		AfterFunc: func(time.Duration, func()) {},
	})
	w.SetServerStatus(StatusOnline)
	atStep(w, StepAssessment, "INC-1")

	require.NoError(t, w.SubmitAssessment(context.Background(), assessment))

	assert.False(t, busy)
	assert.ErrorIs(t, resubmitErr, ErrBusy)
	assert.Equal(t, StepOverview, backTo)

	s := w.Snapshot()
	assert.Equal(t, StepOverview, s.Step, "back during the delay cancels the step change")
	assert.Equal(t, "High", s.Part2.Priority)
	assert.Empty(t, s.Success)
	assert.NotContains(t, s.Visited, StepInvestigation)
	svc.AssertNumberOfCalls(t, "AddAssessment", 1)
}

func TestBackKeepsResults(t *testing.T) {
	w, _ := newTestWizard(&mockService{})
	atStep(w, StepActionPlan, "INC-1")
	w.mu.Lock()
	w.state.Part2 = &hsg245.Assessment{Priority: "Low"}
	w.mu.Unlock()

	assert.Equal(t, StepInvestigation, w.Back())
	assert.Equal(t, StepAssessment, w.Back())
	assert.Equal(t, StepOverview, w.Back())
	assert.Equal(t, StepOverview, w.Back())
	assert.Equal(t, "Low", w.Snapshot().Part2.Priority)
}

func TestGeneratePDF(t *testing.T) {
	svc := &mockService{}
	svc.On("GeneratePDFReport", mock.Anything, "INC-1").Return(&client.Report{
		IncidentID: "INC-1",
		Filename:   hsg245.ReportFilename("INC-1"),
		Data:       []byte("%PDF"),
	}, nil)

	var clear func()
	var clearDelay time.Duration
	w := New(svc, Options{
		Sleep: func(context.Context, time.Duration) {},
		AfterFunc: func(d time.Duration, f func()) {
			clearDelay, clear = d, f
		},
	})
	w.SetServerStatus(StatusOnline)
	atStep(w, StepActionPlan, "INC-1")

	dir := t.TempDir()
	path, err := w.GeneratePDF(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "HSG245_Report_INC-1.pdf"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	assert.Equal(t, MsgPDFDownloaded, w.Snapshot().Success)
	assert.Equal(t, 3*time.Second, clearDelay)
	require.NotNil(t, clear)
	clear()
	assert.Empty(t, w.Snapshot().Success)
}

func TestGeneratePDF_Failure(t *testing.T) {
	svc := &mockService{}
	svc.On("GeneratePDFReport", mock.Anything, "INC-1").
		Return(nil, &client.RequestError{StatusCode: 500, Message: "PDF generation failed"})
	w, _ := newTestWizard(svc)
	atStep(w, StepActionPlan, "INC-1")

	_, err := w.GeneratePDF(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "PDF generation failed", w.Snapshot().Error)
	assert.Equal(t, StepActionPlan, w.Snapshot().Step)
}

func TestClearSuccessIgnoresStaleTimer(t *testing.T) {
	w, _ := newTestWizard(&mockService{})
	gen := w.update(func(s *State) { s.Success = "first" })
	w.update(func(s *State) { s.Success = "second" })

	w.clearSuccess(gen)
	assert.Equal(t, "second", w.Snapshot().Success)
}
