package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/yndnr/cachemesh-go/internal/registry"
	"github.com/yndnr/cachemesh-go/internal/telemetry/logger"
)

// complexPayload exercises nesting, negative numbers, booleans and arrays
// through a full write/read cycle.
const complexPayload = `{
	"name": "test",
	"state": "pending",
	"isAmazing": true,
	"details": {
		"keyboard": "cat",
		"words": -65555,
		"sanity": ["lost", "coffee"]
	}
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: "text"})
	reg := registry.New(log)

	// The temp dir must be claimed before the destroy cleanup is
	// registered: cleanups run last-in-first-out, and the disk engine has
	// to close while its directory still exists.
	diskDir := t.TempDir()
	t.Cleanup(func() { reg.Destroy() })

	if _, err := reg.Create(registry.DefaultInstance, registry.Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Create("secondary", registry.Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Create("disk", registry.Options{CacheOnDisk: true, CachePath: diskDir}); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(New(reg, nil, log))
	t.Cleanup(srv.Close)
	return srv
}

// post sends a raw protocol message and decodes the response body.
func post(t *testing.T, srv *httptest.Server, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, decoded
}

func TestDispatchRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv, `{"action":"put","key":"obj","value":`+complexPayload+`}`)
	if status != http.StatusOK {
		t.Fatalf("put status %d: %v", status, body)
	}
	if body["value"] != true {
		t.Fatalf("put must answer {\"value\":true}, got %v", body)
	}

	status, body = post(t, srv, `{"action":"get","key":"obj"}`)
	if status != http.StatusOK {
		t.Fatalf("get status %d: %v", status, body)
	}

	var want map[string]any
	if err := json.Unmarshal([]byte(complexPayload), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(body["value"], want) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", body["value"], want)
	}
}

func TestDispatchGetMissingKey(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv, `{"action":"get","key":"never-written"}`)
	if status != http.StatusOK {
		t.Fatalf("status %d: %v", status, body)
	}
	if len(body) != 0 {
		t.Errorf("missing key must yield an empty body, got %v", body)
	}
}

func TestDispatchDelThenGet(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, `{"action":"put","key":"k","value":"v"}`)

	status, body := post(t, srv, `{"action":"del","key":"k"}`)
	if status != http.StatusOK || body["value"] != true {
		t.Fatalf("del: status %d body %v", status, body)
	}

	status, body = post(t, srv, `{"action":"get","key":"k"}`)
	if status != http.StatusOK || len(body) != 0 {
		t.Errorf("get after del: status %d body %v", status, body)
	}
}

func TestDispatchDelMissingKey(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv, `{"action":"del","key":"never-written"}`)
	if status != http.StatusOK {
		t.Fatalf("status %d: %v", status, body)
	}
	if len(body) != 0 {
		t.Errorf("del of a missing key must yield an empty body, got %v", body)
	}
}

func TestDispatchOverwrite(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, `{"action":"put","key":"k","value":"first"}`)
	post(t, srv, `{"action":"put","key":"k","value":"second"}`)

	_, body := post(t, srv, `{"action":"get","key":"k"}`)
	if body["value"] != "second" {
		t.Errorf("got %v, want last write", body["value"])
	}
}

func TestDispatchInstanceIsolation(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, `{"action":"put","key":"shared","value":"from-default"}`)
	post(t, srv, `{"storeId":"secondary","action":"put","key":"shared","value":"from-secondary"}`)

	_, body := post(t, srv, `{"action":"get","key":"shared"}`)
	if body["value"] != "from-default" {
		t.Errorf("default instance: got %v", body["value"])
	}

	_, body = post(t, srv, `{"storeId":"secondary","action":"get","key":"shared"}`)
	if body["value"] != "from-secondary" {
		t.Errorf("secondary instance: got %v", body["value"])
	}

	post(t, srv, `{"storeId":"secondary","action":"del","key":"shared"}`)
	_, body = post(t, srv, `{"action":"get","key":"shared"}`)
	if body["value"] != "from-default" {
		t.Errorf("delete on secondary must not touch default, got %v", body["value"])
	}
}

func TestDispatchBatch(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, `{"action":"put","key":"c","value":"stale"}`)

	status, body := post(t, srv, `{"action":"batch","value":[
		{"type":"put","key":"a","value":1},
		{"type":"put","key":"b","value":{"nested":true}},
		{"type":"del","key":"c"},
		{"type":"get","key":"a"}
	]}`)
	if status != http.StatusOK || body["value"] != true {
		t.Fatalf("batch: status %d body %v", status, body)
	}

	_, body = post(t, srv, `{"action":"get","key":"a"}`)
	if body["value"] != float64(1) {
		t.Errorf("get a: got %v, want 1", body["value"])
	}

	_, body = post(t, srv, `{"action":"get","key":"b"}`)
	want := map[string]any{"nested": true}
	if !reflect.DeepEqual(body["value"], want) {
		t.Errorf("get b: got %v", body["value"])
	}

	_, body = post(t, srv, `{"action":"get","key":"c"}`)
	if len(body) != 0 {
		t.Errorf("c must be deleted by the batch, got %v", body)
	}
}

func TestDispatchPersistentInstance(t *testing.T) {
	srv := newTestServer(t)

	status, body := post(t, srv, `{"storeId":"disk","action":"put","key":"durable","value":[1,2,3]}`)
	if status != http.StatusOK || body["value"] != true {
		t.Fatalf("put: status %d body %v", status, body)
	}

	_, body = post(t, srv, `{"storeId":"disk","action":"get","key":"durable"}`)
	want := []any{float64(1), float64(2), float64(3)}
	if !reflect.DeepEqual(body["value"], want) {
		t.Errorf("got %v", body["value"])
	}
}

func TestDispatchValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed body", `{not json`, http.StatusBadRequest, "CM-REQ-4000"},
		{"missing action", `{"key":"k"}`, http.StatusBadRequest, "CM-REQ-4001"},
		{"unknown action", `{"action":"drop","key":"k"}`, http.StatusBadRequest, "CM-REQ-4001"},
		{"get without key", `{"action":"get"}`, http.StatusBadRequest, "CM-REQ-4002"},
		{"put without key", `{"action":"put","value":1}`, http.StatusBadRequest, "CM-REQ-4002"},
		{"put without value", `{"action":"put","key":"k"}`, http.StatusBadRequest, "CM-REQ-4003"},
		{"put null value", `{"action":"put","key":"k","value":null}`, http.StatusBadRequest, "CM-REQ-4003"},
		{"del without key", `{"action":"del"}`, http.StatusBadRequest, "CM-REQ-4002"},
		{"batch without value", `{"action":"batch"}`, http.StatusBadRequest, "CM-REQ-4003"},
		{"batch non-array value", `{"action":"batch","value":"nope"}`, http.StatusBadRequest, "CM-REQ-4000"},
		{"batch entry without key", `{"action":"batch","value":[{"type":"put","value":1}]}`, http.StatusBadRequest, "CM-REQ-4000"},
		{"unknown store", `{"storeId":"ghost","action":"get","key":"k"}`, http.StatusNotFound, "CM-STORE-4040"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, srv, tt.body)
			if status != tt.status {
				t.Errorf("status %d, want %d (%v)", status, tt.status, body)
			}
			if body["code"] != tt.code {
				t.Errorf("code %v, want %q", body["code"], tt.code)
			}
		})
	}
}

func TestUnmatchedRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/nope", "application/json", bytes.NewBufferString(`{"action":"get","key":"k"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d, want 404", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "CM-REQ-4040" {
		t.Errorf("code %v", body["code"])
	}
}

func TestHealthAndStatus(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/admin/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status endpoint %d", resp.StatusCode)
	}

	var status struct {
		Instances []struct {
			ID string `json:"id"`
		} `json:"instances"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if len(status.Instances) != 3 {
		t.Errorf("expected 3 instances, got %d", len(status.Instances))
	}
}
