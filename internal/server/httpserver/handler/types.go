// Package handler provides the HTTP request handlers for cachemesh.
package handler

import "encoding/json"

// Known actions multiplexed over the single endpoint.
const (
	ActionGet   = "get"
	ActionPut   = "put"
	ActionDel   = "del"
	ActionBatch = "batch"
)

// Request is the wire shape of every dispatch call. All four actions
// share it; which fields are required depends on the action.
type Request struct {
	StoreID string          `json:"storeId,omitempty"`
	Action  string          `json:"action"`
	Key     string          `json:"key,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// BatchEntry is one sub-operation of a batch request, carried in the
// request's value field as an ordered array.
type BatchEntry struct {
	Type  string          `json:"type"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Response is the wire shape of every successful dispatch reply.
//
// get returns the stored value; put, del and batch return true. A lookup
// that found nothing returns an empty object: absence is success, not an
// error.
type Response struct {
	Value any `json:"value,omitempty"`
}

// ErrorResponse is the wire shape of every failed dispatch reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
