package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

func workflowInput() WorkflowInput {
	return WorkflowInput{
		Overview:      validOverview(),
		Assessment:    hsg245.AssessmentInput{EventType: "Accident", ActualHarm: "Minor injury", RiddorReportable: "No"},
		Investigation: hsg245.InvestigationInput{Location: "Warehouse", WhoInvolved: "Bob", HowHappened: "Slipped"},
	}
}

func TestRunCompleteWorkflow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch rec1(r)["action"] {
		case "create_incident":
			writeData(w, map[string]any{"incident_id": "INC-42"})
		case "add_assessment":
			writeData(w, map[string]any{"priority": "Low"})
		case "investigate":
			writeData(w, map[string]any{"root_causes": []any{"Training"}})
		case "generate_action_plan":
			writeData(w, map[string]any{"control_measures": []any{}})
		case "generate_pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF"))
		}
	}))
	defer srv.Close()

	var steps []WorkflowStep
	dir := t.TempDir()
	res, err := NewIncidentClient(srv.URL).RunCompleteWorkflow(context.Background(), workflowInput(), dir, func(s WorkflowStep) {
		steps = append(steps, s)
	})
	require.NoError(t, err)
	assert.Equal(t, "INC-42", res.IncidentID)
	assert.Equal(t, "Low", res.Part2.Priority)
	assert.Equal(t, "Training", res.Part3.RootCauses[0].Text)
	require.NotNil(t, res.Part4)
	assert.Equal(t, []WorkflowStep{StepOverview, StepAssessment, StepInvestigation, StepActionPlan, StepReport}, steps)

	_, err = os.Stat(res.ReportPath)
	assert.NoError(t, err)
}

func TestRunCompleteWorkflow_StopsAtFirstFailure(t *testing.T) {
	var actions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action, _ := rec1(r)["action"].(string)
		actions = append(actions, action)
		if action == "investigate" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"Backend API error","details":"model timeout"}`))
			return
		}
		writeData(w, map[string]any{"incident_id": "INC-5"})
	}))
	defer srv.Close()

	res, err := NewIncidentClient(srv.URL).RunCompleteWorkflow(context.Background(), workflowInput(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "part 3")
	assert.Contains(t, err.Error(), "model timeout")
	assert.Equal(t, "INC-5", res.IncidentID)
	assert.NotNil(t, res.Part2)
	assert.Nil(t, res.Part3)
	assert.Equal(t, []string{"create_incident", "add_assessment", "investigate"}, actions)
}
