// Package client provides the Go client for the cachemesh protocol.
//
// Every call is a single stateless request/response exchange against the
// server's root endpoint. Failures never panic and never lose transport
// context: any transport or protocol error is returned as a *Failure
// carrying the attempted target, the outgoing payload, and the response
// status and body where one was received.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds each exchange unless the caller's context is
// stricter.
const DefaultTimeout = 30 * time.Second

// Failure describes a failed exchange. It implements error.
type Failure struct {
	// Target is the URL the call was attempted against.
	Target string

	// Payload is the outgoing request body, if one was built.
	Payload []byte

	// Status is the HTTP response status, or 0 when no response arrived.
	Status int

	// Body is the raw response body, if any was read.
	Body []byte

	// Err is the underlying transport or decoding error, if any.
	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	switch {
	case f.Err != nil && f.Status == 0:
		return fmt.Sprintf("cachemesh client: %s: %v", f.Target, f.Err)
	case f.Err != nil:
		return fmt.Sprintf("cachemesh client: %s: status %d: %v", f.Target, f.Status, f.Err)
	default:
		return fmt.Sprintf("cachemesh client: %s: status %d: %s", f.Target, f.Status, f.Body)
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (f *Failure) Unwrap() error {
	return f.Err
}

// BatchEntry is one sub-operation of a batch call.
type BatchEntry struct {
	Type  string `json:"type"`
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
}

// request mirrors the server's wire shape.
type request struct {
	StoreID string `json:"storeId,omitempty"`
	Action  string `json:"action"`
	Key     string `json:"key,omitempty"`
	Value   any    `json:"value,omitempty"`
}

// Client talks to one cachemesh endpoint, optionally pinned to a store
// instance other than "default".
type Client struct {
	endpoint string
	storeID  string
	hc       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithStore pins the client to the named store instance.
func WithStore(id string) Option {
	return func(c *Client) {
		c.storeID = id
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// New creates a client for the given server address. A bare host:port is
// accepted and gets an http:// prefix.
func New(server string, opts ...Option) *Client {
	endpoint := server
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	endpoint = strings.TrimSuffix(endpoint, "/") + "/"

	c := &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves the value stored under key. A key never written (or
// already deleted) yields nil with no error.
func (c *Client) Get(ctx context.Context, key string) (json.RawMessage, error) {
	return c.do(ctx, request{StoreID: c.storeID, Action: "get", Key: key})
}

// Put stores value under key. value must be JSON-serializable.
func (c *Client) Put(ctx context.Context, key string, value any) error {
	_, err := c.do(ctx, request{StoreID: c.storeID, Action: "put", Key: key, Value: value})
	return err
}

// Delete removes the entry under key. Deleting an absent key is not an
// error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, request{StoreID: c.storeID, Action: "del", Key: key})
	return err
}

// Batch submits the ordered entries as one backend batch.
func (c *Client) Batch(ctx context.Context, entries []BatchEntry) error {
	_, err := c.do(ctx, request{StoreID: c.storeID, Action: "batch", Value: entries})
	return err
}

// Endpoint returns the resolved endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// do runs one exchange and unwraps the response's value field.
func (c *Client) do(ctx context.Context, req request) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &Failure{Target: c.endpoint, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Failure{Target: c.endpoint, Payload: payload, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, &Failure{Target: c.endpoint, Payload: payload, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Target: c.endpoint, Payload: payload, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Target: c.endpoint, Payload: payload, Status: resp.StatusCode, Body: body}
	}

	var out struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Failure{Target: c.endpoint, Payload: payload, Status: resp.StatusCode, Body: body, Err: err}
	}

	return out.Value, nil
}
