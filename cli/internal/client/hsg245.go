// Package client is the HSG245 API client used by the CLI and the wizard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// Mode selects the transport.
type Mode string

const (
	// ModeProxy posts {action, data} envelopes to the same-origin proxy.
	ModeProxy Mode = "proxy"
	// ModeDirect calls the backend REST routes directly.
	ModeDirect Mode = "direct"
)

// DefaultTimeout covers investigations, which take 10-20s on the backend.
const DefaultTimeout = 120 * time.Second

const userAgent = "hsg245-cli"

// HealthReport is the result of CheckHealth. Status is "healthy" or "offline".
type HealthReport struct {
	Status     string          `json:"status"`
	Backend    json.RawMessage `json:"backend,omitempty"`
	BackendURL string          `json:"backend_url,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Online reports whether the backend answered healthy.
func (h HealthReport) Online() bool {
	return h.Status == "healthy"
}

// IncidentClient talks to the proxy or the backend. It never retries.
type IncidentClient struct {
	baseURL string
	mode    Mode
	client  *http.Client
	now     func() time.Time
}

// Option configures an IncidentClient.
type Option func(*IncidentClient)

func WithMode(m Mode) Option {
	return func(c *IncidentClient) { c.mode = m }
}

func WithTimeout(d time.Duration) Option {
	return func(c *IncidentClient) { c.client.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *IncidentClient) { c.client = hc }
}

// NewIncidentClient creates a client. In proxy mode baseURL is the proxy
// endpoint (e.g. http://localhost:3000/api/hsg245); in direct mode it is the
// backend origin.
func NewIncidentClient(baseURL string, opts ...Option) *IncidentClient {
	c := &IncidentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		mode:    ModeProxy,
		client:  &http.Client{Timeout: DefaultTimeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured endpoint.
func (c *IncidentClient) BaseURL() string { return c.baseURL }

// Mode returns the configured transport.
func (c *IncidentClient) Mode() Mode { return c.mode }

// CheckHealth never fails: any error is folded into an offline report.
func (c *IncidentClient) CheckHealth(ctx context.Context) HealthReport {
	url := c.baseURL
	if c.mode == ModeDirect {
		url += hsg245.HealthPath
	}

	body, _, _, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthReport{Status: "offline", Error: err.Error()}
	}

	report := HealthReport{Status: "healthy", BackendURL: c.baseURL}
	if c.mode == ModeProxy {
		var proxied HealthReport
		if err := json.Unmarshal(body, &proxied); err == nil {
			report = proxied
		}
		if report.Status == "" {
			report.Status = "healthy"
		}
	} else if json.Valid(body) {
		report.Backend = body
	}
	return report
}

// CreateIncident submits Part 1. An empty DateTime defaults to now.
func (c *IncidentClient) CreateIncident(ctx context.Context, in hsg245.OverviewInput) (*hsg245.CreateIncidentResult, error) {
	if strings.TrimSpace(in.DateTime) == "" {
		in.DateTime = c.now().Format(time.RFC3339)
	}
	if missing := in.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Part: "part1", Fields: missing}
	}

	var out hsg245.CreateIncidentResult
	if err := c.call(ctx, hsg245.ActionCreateIncident, "", in, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.IncidentID) == "" {
		return nil, &RequestError{StatusCode: http.StatusBadGateway, Message: "Backend did not return an incident_id"}
	}
	return &out, nil
}

// AddAssessment submits Part 2.
func (c *IncidentClient) AddAssessment(ctx context.Context, incidentID string, in hsg245.AssessmentInput) (*hsg245.Assessment, error) {
	if err := requireID("part2", incidentID); err != nil {
		return nil, err
	}
	if missing := in.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Part: "part2", Fields: missing}
	}

	var out hsg245.Assessment
	req := hsg245.AssessmentRequest{IncidentID: incidentID, AssessmentInput: in}
	if err := c.call(ctx, hsg245.ActionAddAssessment, incidentID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InvestigateIncident submits Part 3. Optional answers are sent as "".
func (c *IncidentClient) InvestigateIncident(ctx context.Context, incidentID string, in hsg245.InvestigationInput) (*hsg245.Investigation, error) {
	if err := requireID("part3", incidentID); err != nil {
		return nil, err
	}
	if missing := in.Missing(); len(missing) > 0 {
		return nil, &ValidationError{Part: "part3", Fields: missing}
	}

	var out hsg245.Investigation
	req := hsg245.InvestigationRequest{IncidentID: incidentID, InvestigationInput: in}
	if err := c.call(ctx, hsg245.ActionInvestigate, incidentID, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateActionPlan asks the backend for Part 4.
func (c *IncidentClient) GenerateActionPlan(ctx context.Context, incidentID string) (*hsg245.ActionPlan, error) {
	if err := requireID("part4", incidentID); err != nil {
		return nil, err
	}

	var out hsg245.ActionPlan
	if err := c.call(ctx, hsg245.ActionGenerateActionPlan, incidentID, hsg245.IncidentRef{IncidentID: incidentID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *IncidentClient) GetIncident(ctx context.Context, incidentID string) (*hsg245.Incident, error) {
	if err := requireID("incident", incidentID); err != nil {
		return nil, err
	}

	var out hsg245.Incident
	if err := c.call(ctx, hsg245.ActionGetIncident, incidentID, hsg245.IncidentRef{IncidentID: incidentID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *IncidentClient) ListIncidents(ctx context.Context) ([]hsg245.Incident, error) {
	var out []hsg245.Incident
	if err := c.call(ctx, hsg245.ActionListIncidents, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneratePDFReport fetches the rendered report. Use Report.Save to write it.
func (c *IncidentClient) GeneratePDFReport(ctx context.Context, incidentID string) (*Report, error) {
	if err := requireID("report", incidentID); err != nil {
		return nil, err
	}

	url, method, body, err := c.target(hsg245.ActionGeneratePDF, incidentID, hsg245.IncidentRef{IncidentID: incidentID})
	if err != nil {
		return nil, err
	}
	data, header, _, err := c.doRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	report := &Report{
		IncidentID:  incidentID,
		ContentType: header.Get("Content-Type"),
		Filename:    hsg245.ReportFilename(incidentID),
		Data:        data,
	}
	if name := filenameFromDisposition(header.Get("Content-Disposition")); name != "" {
		report.Filename = name
	}
	return report, nil
}

// call runs action and decodes the envelope's data into out.
func (c *IncidentClient) call(ctx context.Context, action hsg245.Action, incidentID string, data, out any) error {
	url, method, body, err := c.target(action, incidentID, data)
	if err != nil {
		return err
	}

	raw, _, status, err := c.doRequest(ctx, method, url, body)
	if err != nil {
		return err
	}

	var env hsg245.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		if env.Error != "" || env.Detail != "" {
			return &RequestError{StatusCode: status, Message: firstNonEmpty(env.Error, env.Detail), Details: env.Detail}
		}
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", action, err)
	}
	return nil
}

// target resolves the URL, method and body for action in the current mode.
func (c *IncidentClient) target(action hsg245.Action, incidentID string, data any) (string, string, any, error) {
	if c.mode == ModeProxy {
		req := hsg245.ActionRequest{Action: string(action)}
		if data != nil {
			b, err := json.Marshal(data)
			if err != nil {
				return "", "", nil, fmt.Errorf("failed to marshal %s data: %w", action, err)
			}
			req.Data = b
		}
		return c.baseURL, http.MethodPost, req, nil
	}

	route, ok := hsg245.Lookup(string(action))
	if !ok {
		return "", "", nil, fmt.Errorf("unknown action: %s", action)
	}
	var body any
	if route.SendsBody() {
		body = data
		if action == hsg245.ActionGenerateActionPlan {
			body = struct{}{}
		}
	}
	return c.baseURL + route.Path(incidentID), route.Method, body, nil
}

// doRequest sends one request and returns the body, headers and status of a
// 2xx response. Anything else becomes a *RequestError.
func (c *IncidentClient) doRequest(ctx context.Context, method, url string, body any) ([]byte, http.Header, int, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, nil, 0, transportError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, application/pdf")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, 0, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, 0, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, resp.StatusCode, parseError(resp.StatusCode, data)
	}
	return data, resp.Header, resp.StatusCode, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func requireID(part, incidentID string) error {
	if strings.TrimSpace(incidentID) == "" {
		return &ValidationError{Part: part, Fields: []string{"incident_id"}}
	}
	return nil
}

func filenameFromDisposition(v string) string {
	if v == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return params["filename"]
}
