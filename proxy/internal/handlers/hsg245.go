// Package handlers implements the proxy's HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/safetyline/hsg245-stack/common/hsg245"
	"github.com/safetyline/hsg245-stack/common/httputil"
	"github.com/safetyline/hsg245-stack/common/logging"
	"github.com/safetyline/hsg245-stack/proxy/internal/backend"
	"github.com/safetyline/hsg245-stack/proxy/internal/lifecycle"
	"github.com/safetyline/hsg245-stack/proxy/internal/metrics"
)

const maxRequestBytes = 1 << 20

var errMissingIncidentID = errors.New("missing incident_id")

// Backend is the subset of the backend client used by the handler.
type Backend interface {
	BaseURL() string
	Health(ctx context.Context) (*backend.Response, error)
	Do(ctx context.Context, method, path string, payload any) (*backend.Response, error)
}

// HSG245Handler serves /api/hsg245: GET is a health probe, POST dispatches
// an {action, data} envelope to one backend route.
type HSG245Handler struct {
	backend Backend
	tracker *lifecycle.Tracker
	logger  *logging.Logger
	devMode bool
	now     func() time.Time
}

// NewHSG245Handler creates the handler. tracker may be nil. devMode adds
// stack traces to internal error envelopes.
func NewHSG245Handler(b Backend, tracker *lifecycle.Tracker, logger *logging.Logger, devMode bool) *HSG245Handler {
	return &HSG245Handler{
		backend: b,
		tracker: tracker,
		logger:  logger,
		devMode: devMode,
		now:     time.Now,
	}
}

type healthResponse struct {
	Status     string `json:"status"`
	Backend    any    `json:"backend"`
	BackendURL string `json:"backend_url"`
	Timestamp  string `json:"timestamp"`
}

// Health checks the backend and wraps its reply.
func (h *HSG245Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	resp, err := h.backend.Health(ctx)
	metrics.BackendDuration.WithLabelValues("health").Observe(time.Since(start).Seconds())
	if err == nil && !resp.OK() {
		err = fmt.Errorf("backend health check failed: HTTP %d", resp.StatusCode)
	}
	if err != nil {
		metrics.HealthChecks.WithLabelValues("offline").Inc()
		h.internalError(w, r, "health", err)
		return
	}

	metrics.HealthChecks.WithLabelValues("healthy").Inc()
	h.count("health", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, healthResponse{
		Status:     "healthy",
		Backend:    decodeLoose(resp.Body),
		BackendURL: h.backend.BaseURL(),
		Timestamp:  h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Dispatch handles POST {action, data}. Exactly one backend call is made.
func (h *HSG245Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req hsg245.ActionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.reject(w, "Invalid request body")
		return
	}
	if req.Action == "" {
		h.reject(w, "Missing action parameter")
		return
	}
	route, ok := hsg245.Lookup(req.Action)
	if !ok {
		h.reject(w, "Unknown action: "+req.Action)
		return
	}

	payload, incidentID, err := buildPayload(route, req.Data)
	if err != nil {
		if errors.Is(err, errMissingIncidentID) {
			h.reject(w, "Missing incident_id parameter")
		} else {
			h.reject(w, "Invalid data for action "+req.Action)
		}
		return
	}

	action := string(route.Action)
	h.logger.DebugContext(ctx, "forwarding action",
		logging.Action(action),
		logging.IncidentID(incidentID),
		logging.BackendURL(h.backend.BaseURL()))

	start := time.Now()
	resp, err := h.backend.Do(ctx, route.Method, route.Path(incidentID), payload)
	elapsed := time.Since(start)
	metrics.BackendDuration.WithLabelValues(action).Observe(elapsed.Seconds())
	if err != nil {
		metrics.BackendErrors.WithLabelValues(action, "transport").Inc()
		h.internalError(w, r, action, err)
		return
	}

	if !resp.OK() {
		metrics.BackendErrors.WithLabelValues(action, "status").Inc()
		h.logger.WarnContext(ctx, "backend returned error",
			logging.Action(action),
			logging.IncidentID(incidentID),
			logging.Status(resp.StatusCode),
			logging.Duration(elapsed))

		body := httputil.ErrorBody{Error: "Backend API error", Details: string(resp.Body), Status: resp.StatusCode}
		if route.Binary {
			body = httputil.ErrorBody{Error: "PDF generation failed", Details: string(resp.Body)}
		}
		h.count(action, resp.StatusCode)
		httputil.WriteErrorBody(w, resp.StatusCode, body)
		return
	}

	if route.Action == hsg245.ActionCreateIncident {
		incidentID = createdID(resp.Body)
	}
	h.tracker.Observe(ctx, route.Action, incidentID)

	h.logger.InfoContext(ctx, "action completed",
		logging.Action(action),
		logging.IncidentID(incidentID),
		logging.Status(resp.StatusCode),
		logging.Duration(elapsed))
	h.count(action, resp.StatusCode)

	if route.Binary {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, hsg245.ReportFilename(incidentID)))
		httputil.WriteRaw(w, http.StatusOK, "application/pdf", resp.Body)
		return
	}

	// JSON actions are always relayed as JSON, whatever the backend labelled them.
	httputil.WriteRaw(w, resp.StatusCode, "application/json", resp.Body)
}

// MethodNotAllowed answers every method other than GET, POST and OPTIONS.
func (h *HSG245Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.count("invalid", http.StatusMethodNotAllowed)
	httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (h *HSG245Handler) reject(w http.ResponseWriter, msg string) {
	h.count("invalid", http.StatusBadRequest)
	httputil.WriteError(w, http.StatusBadRequest, msg)
}

func (h *HSG245Handler) internalError(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.ErrorContext(r.Context(), "proxy request failed",
		logging.Action(action),
		logging.BackendURL(h.backend.BaseURL()),
		slog.String("client_ip", httputil.GetClientIP(r)),
		logging.Error(err))

	body := httputil.ErrorBody{Error: "Internal server error", Details: err.Error()}
	if h.devMode {
		body.Stack = string(debug.Stack())
	}
	h.count(action, http.StatusInternalServerError)
	httputil.WriteErrorBody(w, http.StatusInternalServerError, body)
}

func (h *HSG245Handler) count(action string, status int) {
	metrics.RequestsTotal.WithLabelValues(action, strconv.Itoa(status)).Inc()
}

// buildPayload reshapes data into the whitelisted body for route and
// extracts the incident id where one is required.
func buildPayload(route hsg245.Route, data json.RawMessage) (any, string, error) {
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}

	var ref hsg245.IncidentRef
	if route.NeedsID {
		if err := json.Unmarshal(data, &ref); err != nil {
			return nil, "", err
		}
		if ref.IncidentID == "" {
			return nil, "", errMissingIncidentID
		}
	}

	switch route.Action {
	case hsg245.ActionCreateIncident:
		var in hsg245.OverviewInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, "", err
		}
		return in, "", nil
	case hsg245.ActionAddAssessment:
		var in hsg245.AssessmentRequest
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, "", err
		}
		return in, ref.IncidentID, nil
	case hsg245.ActionInvestigate:
		var in hsg245.InvestigationRequest
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, "", err
		}
		return in, ref.IncidentID, nil
	case hsg245.ActionGenerateActionPlan:
		return struct{}{}, ref.IncidentID, nil
	case hsg245.ActionGeneratePDF:
		return ref, ref.IncidentID, nil
	default:
		// GET routes carry no body.
		return nil, ref.IncidentID, nil
	}
}

// createdID pulls data.incident_id out of a create_incident envelope.
func createdID(body []byte) string {
	var env struct {
		Data       hsg245.IncidentRef `json:"data"`
		IncidentID string             `json:"incident_id"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Data.IncidentID != "" {
		return env.Data.IncidentID
	}
	return env.IncidentID
}

// decodeLoose returns body as JSON when it parses, else as a string.
func decodeLoose(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}
