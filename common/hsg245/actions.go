package hsg245

import (
	"fmt"
	"net/http"
	"net/url"
)

// Action is the discriminator posted to the proxy in place of distinct URLs.
type Action string

const (
	ActionCreateIncident     Action = "create_incident"
	ActionAddAssessment      Action = "add_assessment"
	ActionInvestigate        Action = "investigate"
	ActionGenerateActionPlan Action = "generate_action_plan"
	ActionGetIncident        Action = "get_incident"
	ActionListIncidents      Action = "list_incidents"
	ActionGeneratePDF        Action = "generate_pdf"
)

// Backend paths.
const (
	HealthPath         = "/api/v1/health"
	CreateIncidentPath = "/api/v1/incidents/create"
	IncidentsPath      = "/api/v1/incidents"
	ReportsPath        = "/api/v1/reports/generate"
)

// Route describes how one action maps onto the backend.
type Route struct {
	Action Action
	Method string
	// NeedsID is true when the path or body requires data.incident_id.
	NeedsID bool
	// Binary marks routes whose success response is a PDF rather than JSON.
	Binary bool
	path   func(id string) string
}

// Path returns the backend path for the given incident id. The id is path-escaped.
func (r Route) Path(incidentID string) string {
	return r.path(url.PathEscape(incidentID))
}

// SendsBody reports whether the backend call carries a JSON body.
func (r Route) SendsBody() bool {
	return r.Method == http.MethodPost
}

func incidentPath(suffix string) func(string) string {
	return func(id string) string {
		if suffix == "" {
			return fmt.Sprintf("%s/%s", IncidentsPath, id)
		}
		return fmt.Sprintf("%s/%s/%s", IncidentsPath, id, suffix)
	}
}

func fixedPath(p string) func(string) string {
	return func(string) string { return p }
}

var routes = map[Action]Route{
	ActionCreateIncident:     {Action: ActionCreateIncident, Method: http.MethodPost, path: fixedPath(CreateIncidentPath)},
	ActionAddAssessment:      {Action: ActionAddAssessment, Method: http.MethodPost, NeedsID: true, path: incidentPath("assessment")},
	ActionInvestigate:        {Action: ActionInvestigate, Method: http.MethodPost, NeedsID: true, path: incidentPath("investigate")},
	ActionGenerateActionPlan: {Action: ActionGenerateActionPlan, Method: http.MethodPost, NeedsID: true, path: incidentPath("actionplan")},
	ActionGetIncident:        {Action: ActionGetIncident, Method: http.MethodGet, NeedsID: true, path: incidentPath("")},
	ActionListIncidents:      {Action: ActionListIncidents, Method: http.MethodGet, path: fixedPath(IncidentsPath)},
	ActionGeneratePDF:        {Action: ActionGeneratePDF, Method: http.MethodPost, NeedsID: true, Binary: true, path: fixedPath(ReportsPath)},
}

// Lookup returns the route for an action name.
func Lookup(action string) (Route, bool) {
	r, ok := routes[Action(action)]
	return r, ok
}

// ReportFilename is the attachment name used for an incident's PDF export.
func ReportFilename(incidentID string) string {
	return fmt.Sprintf("HSG245_Report_%s.pdf", incidentID)
}
