// Package handler provides the HTTP request handlers for cachemesh.
//
// The protocol has a single mutating endpoint at the server root:
// every action (get, put, del, batch) arrives as a POST with the same
// message shape and is multiplexed here.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
	"github.com/yndnr/cachemesh-go/internal/registry"
	"github.com/yndnr/cachemesh-go/internal/telemetry/metric"
)

// Handler routes requests to the dispatch endpoint and the side channels
// (health, metrics, admin status).
type Handler struct {
	registry *registry.Registry
	metrics  *metric.Collector
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates a new Handler over the given registry.
// metrics may be nil, in which case no metrics are recorded.
func New(reg *registry.Registry, metrics *metric.Collector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		registry: reg,
		metrics:  metrics,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /{$}", h.handleDispatch)

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /admin/v1/status", h.handleStatus)

	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics.Handler())
	}

	// Everything else is an unmatched protocol path.
	h.mux.HandleFunc("/", h.handleNotFound)
}

// handleNotFound answers any unmatched path with a 404 naming the path.
// Unmatched paths are the one error class not logged server-side.
func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, domain.ErrRouteNotFound.Code,
		fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path), "")
}

// renderError classifies err, logs it unless it is a 404, and writes the
// error body. Classification itself is a pure function in domain.
func (h *Handler) renderError(w http.ResponseWriter, action string, err error) int {
	status, code := domain.Classify(err)

	if status != http.StatusNotFound {
		h.logger.Error("request failed",
			"action", action,
			"code", code,
			"status", status,
			"error", err)
	}

	var de *domain.DomainError
	if errors.As(err, &de) {
		h.writeError(w, status, code, de.Message, de.Details)
	} else {
		h.writeError(w, status, code, err.Error(), "")
	}
	return status
}

// writeJSON writes a success response body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response body.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
