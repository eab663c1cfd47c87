// Package handler provides the HTTP request handlers for cachemesh.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/cachemesh-go/internal/core/domain"
	"github.com/yndnr/cachemesh-go/internal/registry"
	"github.com/yndnr/cachemesh-go/internal/storage"
)

// jsonNull matches a value field that is present but literally null.
var jsonNull = []byte("null")

// handleDispatch handles POST /, the single protocol endpoint.
func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req Request
	status := http.StatusOK
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = h.renderError(w, "invalid", domain.ErrMalformedRequest.WithCause(err))
		h.observe("invalid", status, start)
		return
	}

	action := req.Action
	if action == "" {
		action = "invalid"
	}

	value, err := h.dispatch(r.Context(), &req)
	if err != nil {
		status = h.renderError(w, action, err)
	} else {
		h.writeJSON(w, http.StatusOK, Response{Value: value})
	}

	h.observe(action, status, start)
}

// dispatch validates the request, resolves the target instance and runs
// the action against its engine.
//
// A nil value with a nil error means "empty success": the backend had
// nothing under the key, which is not a client-visible error.
func (h *Handler) dispatch(ctx context.Context, req *Request) (any, error) {
	switch req.Action {
	case ActionGet, ActionPut, ActionDel, ActionBatch:
	default:
		return nil, domain.ErrUnknownAction.WithDetails(strconv.Quote(req.Action))
	}

	if req.Action == ActionBatch {
		if len(req.Value) == 0 || bytes.Equal(req.Value, jsonNull) {
			return nil, domain.ErrMissingValue.WithDetails("batch requires entries in value")
		}
	} else if req.Key == "" {
		return nil, domain.ErrMissingKey.WithDetails("required for " + req.Action)
	}

	if req.Action == ActionPut && (len(req.Value) == 0 || bytes.Equal(req.Value, jsonNull)) {
		return nil, domain.ErrMissingValue.WithDetails("required for put")
	}

	storeID := req.StoreID
	if storeID == "" {
		storeID = registry.DefaultInstance
	}
	handle, ok := h.registry.Lookup(storeID)
	if !ok {
		return nil, domain.ErrInstanceNotFound.WithDetails(storeID)
	}
	engine := handle.Engine()

	switch req.Action {
	case ActionGet:
		data, err := engine.Get(ctx, req.Key)
		if err != nil {
			return h.mapEngineError(err)
		}
		return domain.DecodeRecord(data).Value, nil

	case ActionPut:
		record, err := domain.NewRecord(req.Value).Encode()
		if err != nil {
			return nil, domain.ErrStorageError.WithCause(err)
		}
		if err := engine.Put(ctx, req.Key, record); err != nil {
			return h.mapEngineError(err)
		}
		return true, nil

	case ActionDel:
		if err := engine.Del(ctx, req.Key); err != nil {
			return h.mapEngineError(err)
		}
		return true, nil

	default: // ActionBatch
		entries, err := decodeBatch(req.Value)
		if err != nil {
			return nil, err
		}
		if err := engine.Batch(ctx, entries); err != nil {
			return h.mapEngineError(err)
		}
		return true, nil
	}
}

// mapEngineError turns a backend failure into a protocol outcome: a
// missing key is an empty success, anything else is a storage error.
func (h *Handler) mapEngineError(err error) (any, error) {
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	return nil, domain.ErrStorageError.WithCause(err)
}

// decodeBatch parses the value field of a batch request into engine
// entries, forwarded verbatim.
func decodeBatch(raw json.RawMessage) ([]storage.BatchEntry, error) {
	var wire []BatchEntry
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, domain.ErrMalformedRequest.WithCause(err).WithDetails("batch entries")
	}

	entries := make([]storage.BatchEntry, 0, len(wire))
	for i, e := range wire {
		entry := storage.BatchEntry{Type: e.Type, Key: e.Key, Value: e.Value}
		if !storage.ValidBatchEntry(entry) {
			return nil, domain.ErrMalformedRequest.WithDetails(
				"batch entry " + strconv.Itoa(i) + ": type and key are required")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// observe records request metrics, if metrics are wired.
func (h *Handler) observe(action string, status int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RequestsTotal.WithLabelValues(action, strconv.Itoa(status)).Inc()
	h.metrics.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
