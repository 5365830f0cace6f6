package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetyline/hsg245-stack/cli/internal/config"
	"github.com/safetyline/hsg245-stack/cli/pkg/output"
)

func init() {
	color.NoColor = true
}

func TestCommandsRegistered(t *testing.T) {
	cfg = config.Default()

	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}

	expectedCommands := map[string]bool{
		"health":   false,
		"incident": false,
		"workflow": false,
		"wizard":   false,
		"demo":     false,
		"config":   false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := expectedCommands[c.Name()]; ok {
			expectedCommands[c.Name()] = true
		}
	}

	for name, found := range expectedCommands {
		if !found {
			t.Errorf("expected command '%s' to be registered with root command", name)
		}
	}
}

func TestIncidentCommandHasSubcommands(t *testing.T) {
	want := []string{"create", "assess", "investigate", "action-plan", "get", "list", "report", "lifecycle", "watch"}
	var got []string
	for _, c := range incidentCmd.Commands() {
		got = append(got, c.Name())
	}
	assert.ElementsMatch(t, want, got)
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "profile", "output", "mode", "url", "timeout", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

// fakeProxy answers the action envelope like the proxy would.
func fakeProxy(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var actions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "backend_url": "https://backend.test"})
			return
		}
		var req struct {
			Action string `json:"action"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		actions = append(actions, req.Action)

		var data any
		switch req.Action {
		case "create_incident":
			data = map[string]any{"incident_id": "INC-100", "part1": map[string]any{"incident_type": "Injury"}}
		case "add_assessment":
			data = map[string]any{"priority": "Medium"}
		case "investigate":
			data = map[string]any{"root_causes": []string{"No inspection regime"}}
		case "generate_action_plan":
			data = map[string]any{"control_measures": []map[string]any{{"measure": "Weekly inspection", "category": "short_term"}}}
		case "list_incidents":
			data = []map[string]any{{"incident_id": "INC-100", "status": "assessed"}}
		case "generate_pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
	}))
	t.Cleanup(srv.Close)
	return srv, &actions
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvMode, "")
	t.Setenv(config.EnvProxyURL, "")

	var buf bytes.Buffer
	oldOut, oldErr := output.Out, output.ErrOut
	output.Out, output.ErrOut = &buf, &buf
	defer func() { output.Out, output.ErrOut = oldOut, oldErr }()

	full := append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestHealthCommand(t *testing.T) {
	srv, _ := fakeProxy(t)

	out, err := run(t, "health", "--url", srv.URL, "--output", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Online")
	assert.Contains(t, out, "https://backend.test")
}

func TestIncidentListCommand(t *testing.T) {
	srv, actions := fakeProxy(t)

	out, err := run(t, "incident", "list", "--url", srv.URL, "--output", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "INC-100")
	assert.Contains(t, out, "Assessed - Awaiting Investigation")
	assert.Equal(t, []string{"list_incidents"}, *actions)
}

func TestWorkflowRunCommand(t *testing.T) {
	srv, actions := fakeProxy(t)
	dir := t.TempDir()

	file := filepath.Join(dir, "incident.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
overview:
  reported_by: Jane Doe
  date_time: "2024-01-01T10:00"
  event_category: Injury
  description: Slip on wet floor
assessment:
  event_type: Accident
  actual_harm: Minor
  riddor_reportable: "No"
investigation:
  location: Warehouse
  who_involved: Bob
  how_happened: Slipped on spilled oil
`), 0600))

	out, err := run(t, "workflow", "run", "-f", file, "--dir", dir, "--url", srv.URL, "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"create_incident", "add_assessment", "investigate", "generate_action_plan", "generate_pdf"}, *actions)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "INC-100", res["incident_id"])

	_, err = os.Stat(filepath.Join(dir, "HSG245_Report_INC-100.pdf"))
	assert.NoError(t, err)
}

func TestInvalidMode(t *testing.T) {
	_, err := run(t, "health", "--mode", "grpc")
	assert.ErrorContains(t, err, "invalid mode")
	_ = rootCmd.PersistentFlags().Set("mode", "")
}
