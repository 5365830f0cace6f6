package tui

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/cli/internal/wizard"
	"github.com/safetyline/hsg245-stack/common/hsg245"
)

func TestRequired(t *testing.T) {
	assert.Error(t, required("   "))
	assert.NoError(t, required("x"))
}

func TestFormsBuild(t *testing.T) {
	assert.NotNil(t, OverviewForm(&hsg245.OverviewInput{}))
	assert.NotNil(t, AssessmentForm(&hsg245.AssessmentInput{}))
	assert.NotNil(t, InvestigationForm(&hsg245.InvestigationInput{}))
	choice := ""
	assert.NotNil(t, NavForm(true, &choice))
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader(wizard.State{
		Step:       wizard.StepInvestigation,
		Server:     wizard.StatusOffline,
		IncidentID: "INC-9",
		Error:      "HTTP 502: Bad Gateway",
	})
	assert.Contains(t, out, "Offline")
	assert.Contains(t, out, "INC-9")
	assert.Contains(t, out, "Investigation")
	assert.Contains(t, out, "HTTP 502: Bad Gateway")
}

func TestRenderResults(t *testing.T) {
	out := RenderResults(wizard.State{
		Part2: &hsg245.Assessment{Priority: "High", InvestigationLevel: "High level"},
		Part3: &hsg245.Investigation{RootCauses: []hsg245.Cause{{Text: "No training"}}},
		Part4: &hsg245.ActionPlan{ControlMeasures: []hsg245.ControlMeasure{
			{Measure: "Train staff", Category: hsg245.MeasureShortTerm, Responsible: "HR", TargetDate: "2025-03-01"},
		}},
	})
	assert.Contains(t, out, "High level")
	assert.Contains(t, out, "No training")
	assert.Contains(t, out, "Short-term Actions (1-3 months)")
	assert.Contains(t, out, "Train staff (HR, by 2025-03-01)")
	assert.NotContains(t, out, "Part 1")
}

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"incident_id":"INC-001","part1":{"incident_type":"Injury"}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunner_SubmitsOverviewThenQuits(t *testing.T) {
	srv := backend(t)
	c := client.NewIncidentClient(srv.URL)
	w := wizard.New(c, wizard.Options{Sleep: func(context.Context, time.Duration) {}})
	w.SetServerStatus(wizard.StatusOnline)

	var out bytes.Buffer
	r := NewRunner(w, t.TempDir(), &out)
	r.Overview = hsg245.OverviewInput{ReportedBy: "Jane Doe", DateTime: "2024-01-01T10:00", EventCategory: "Injury", Description: "Slip on wet floor"}
	r.RunForm = func(context.Context, *huh.Form) error { return nil }
	r.Busy = func(_ context.Context, _ string, action func()) error { action(); return nil }
	r.Choose = func(context.Context, bool) (string, error) { return NavQuit, nil }

	require.NoError(t, r.Run(context.Background()))

	s := w.Snapshot()
	assert.Equal(t, wizard.StepAssessment, s.Step)
	assert.Equal(t, "INC-001", s.IncidentID)
	assert.Contains(t, out.String(), "Injury")
}

func TestRunner_AbortIsCleanExit(t *testing.T) {
	w := wizard.New(client.NewIncidentClient("http://127.0.0.1:0"), wizard.Options{})
	r := NewRunner(w, t.TempDir(), &bytes.Buffer{})
	r.RunForm = func(context.Context, *huh.Form) error { return huh.ErrUserAborted }

	assert.NoError(t, r.Run(context.Background()))
}

func TestRunner_BackMovesStep(t *testing.T) {
	w := wizard.New(client.NewIncidentClient("http://127.0.0.1:0"), wizard.Options{})
	r := NewRunner(w, t.TempDir(), &bytes.Buffer{})

	calls := 0
	r.RunForm = func(context.Context, *huh.Form) error { return huh.ErrUserAborted }
	r.Choose = func(context.Context, bool) (string, error) {
		calls++
		return NavBack, nil
	}

	done, err := r.step(context.Background(), wizard.State{Step: wizard.StepAssessment})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, calls)
}

func TestRunner_ReportSkipsRequestErrors(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{Out: &out}
	r.report(&client.RequestError{StatusCode: 500, Message: "shown in header"})
	assert.Empty(t, out.String())

	r.report(errors.New("server is offline"))
	assert.Contains(t, out.String(), "server is offline")
}
