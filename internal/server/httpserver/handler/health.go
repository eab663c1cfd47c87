// Package handler provides the HTTP request handlers for cachemesh.
package handler

import (
	"net/http"
	"sort"

	"github.com/yndnr/cachemesh-go/internal/infra/buildinfo"
)

// healthResponse is the response body for GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// instanceStatus describes one registered instance in the status report.
type instanceStatus struct {
	InstanceID   string `json:"instance_id"`
	Persistent   bool   `json:"persistent"`
	MaxStoreTime int64  `json:"max_store_time,omitempty"`
}

// statusResponse is the response body for GET /admin/v1/status.
type statusResponse struct {
	Version   string           `json:"version"`
	Instances []instanceStatus `json:"instances"`
}

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: buildinfo.Version(),
	})
}

// handleStatus handles GET /admin/v1/status.
func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	ids := h.registry.Instances()
	sort.Strings(ids)

	instances := make([]instanceStatus, 0, len(ids))
	for _, id := range ids {
		handle, ok := h.registry.Lookup(id)
		if !ok {
			continue
		}
		instances = append(instances, instanceStatus{
			InstanceID:   handle.ID(),
			Persistent:   handle.Persistent(),
			MaxStoreTime: handle.MaxStoreTime(),
		})
	}

	h.writeJSON(w, http.StatusOK, statusResponse{
		Version:   buildinfo.Version(),
		Instances: instances,
	})
}
