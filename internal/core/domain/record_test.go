package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestNewRecordStampsStoreTime(t *testing.T) {
	before := time.Now().UnixMilli()
	rec := NewRecord(json.RawMessage(`"hello"`))
	after := time.Now().UnixMilli()

	if rec.StoreTime < before || rec.StoreTime > after {
		t.Errorf("storeTime %d outside [%d, %d]", rec.StoreTime, before, after)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	payload := json.RawMessage(`{"name":"test","isAmazing":true,"words":-65555}`)
	rec := NewRecord(payload)

	data, err := rec.Encode()
	if err != nil {
		t.Fatal(err)
	}

	got := DecodeRecord(data)
	if got.StoreTime != rec.StoreTime {
		t.Errorf("storeTime %d, want %d", got.StoreTime, rec.StoreTime)
	}
	if !bytes.Equal(got.Value, payload) {
		t.Errorf("value %s, want %s", got.Value, payload)
	}
}

func TestDecodeRecordBareValues(t *testing.T) {
	// Batch writes bypass the envelope, so any JSON value can land in
	// storage as-is. Decode must hand it back untouched.
	tests := []struct {
		name string
		data string
	}{
		{"number", `1`},
		{"string", `"plain"`},
		{"array", `["lost","coffee"]`},
		{"null", `null`},
		{"object without envelope fields", `{"keyboard":"cat"}`},
		{"object with value but no storeTime", `{"value":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeRecord([]byte(tt.data))
			if got.StoreTime != 0 {
				t.Errorf("bare value must decode with zero storeTime, got %d", got.StoreTime)
			}
			if string(got.Value) != tt.data {
				t.Errorf("value %s, want %s", got.Value, tt.data)
			}
		})
	}
}

func TestDecodeRecordEnvelope(t *testing.T) {
	got := DecodeRecord([]byte(`{"storeTime":1700000000000,"value":{"state":"pending"}}`))
	if got.StoreTime != 1700000000000 {
		t.Errorf("storeTime %d", got.StoreTime)
	}
	if string(got.Value) != `{"state":"pending"}` {
		t.Errorf("value %s", got.Value)
	}
}
