package handlers

import (
	"errors"
	"net/http"

	"github.com/safetyline/hsg245-stack/common/httputil"
	"github.com/safetyline/hsg245-stack/common/logging"
	"github.com/safetyline/hsg245-stack/proxy/internal/lifecycle"
)

// LifecycleHandler exposes the proxy's view of incident progress.
type LifecycleHandler struct {
	store  lifecycle.Store
	logger *logging.Logger
}

func NewLifecycleHandler(store lifecycle.Store, logger *logging.Logger) *LifecycleHandler {
	return &LifecycleHandler{store: store, logger: logger}
}

// List handles GET /api/hsg245/lifecycle?limit=N.
func (h *LifecycleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := httputil.ParseLimit(r, 50, 500)

	items, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list lifecycle", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to list incidents")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

// Get handles GET /api/hsg245/lifecycle/{id}.
func (h *LifecycleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	lc, err := h.store.Get(r.Context(), id)
	if errors.Is(err, lifecycle.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "Incident not tracked: "+id)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get lifecycle", logging.IncidentID(id), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to get incident")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": lc})
}
