// Package domain defines the core domain models for cachemesh.
package domain

import (
	"encoding/json"
	"time"
)

// Record is the stored envelope wrapping every value written through put.
//
// StoreTime is stamped by the server at the moment the write request is
// processed, never by the client. It is recorded for diagnostics only and
// is not consulted when reading the value back.
type Record struct {
	StoreTime int64           `json:"storeTime"`
	Value     json.RawMessage `json:"value"`
}

// NewRecord wraps a raw JSON value into a record stamped with the current
// wall-clock time in milliseconds.
func NewRecord(value json.RawMessage) *Record {
	return &Record{
		StoreTime: time.Now().UnixMilli(),
		Value:     value,
	}
}

// Encode serializes the record for storage.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses stored bytes back into a record.
//
// Values written through put always carry the envelope. Batch entries are
// forwarded to the backend verbatim, so a key may also hold a bare value;
// in that case the bytes are returned unwrapped with a zero StoreTime.
func DecodeRecord(data []byte) *Record {
	var probe struct {
		StoreTime *int64          `json:"storeTime"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.StoreTime == nil {
		return &Record{Value: json.RawMessage(data)}
	}
	return &Record{StoreTime: *probe.StoreTime, Value: probe.Value}
}
