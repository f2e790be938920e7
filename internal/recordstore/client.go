// Package recordstore is a client for the CRM's external record store, a
// PostgREST-style HTTP API. Row-level policies on the store derive the tenant
// scope from the x-organization-id header, which the client's transport
// attaches to every outbound request.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoRows is returned by Single when a query matched nothing.
	ErrNoRows = errors.New("record store: no rows")
	// ErrMultipleRows is returned by Single when a query matched more than one row.
	ErrMultipleRows = errors.New("record store: multiple rows")
)

// UpstreamError is a non-2xx response from the record store.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("record store: status %d: %s", e.StatusCode, e.Message)
}

// Client issues requests against the record store. A client carries either a
// caller's access token (tenant-scoped, header-injected) or the service key
// (trusted, no tenant injection).
type Client struct {
	base   *url.URL
	http   *http.Client
	apiKey string
	token  string
	log    *logrus.Entry
}

// New creates a tenant-scoped client. Every request it sends is stamped with
// the active organization id from source at send time.
func New(baseURL, apiKey string, source OrgSource, log *logrus.Entry) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("record store: invalid base url: %w", err)
	}

	return &Client{
		base: base,
		http: &http.Client{
			Transport: newOrgTransport(nil, source, base),
			Timeout:   10 * time.Second,
		},
		apiKey: apiKey,
		log:    log,
	}, nil
}

// NewAdmin creates a trusted client authenticated with the service key. It
// bypasses tenant scoping entirely and must only be used behind the
// privileged service boundary.
func NewAdmin(baseURL, serviceKey string, log *logrus.Entry) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("record store: invalid base url: %w", err)
	}

	return &Client{
		base:   base,
		http:   &http.Client{Timeout: 10 * time.Second},
		apiKey: serviceKey,
		token:  serviceKey,
		log:    log,
	}, nil
}

// WithToken returns a shallow copy of the client that authenticates as the
// holder of the given access token. The underlying transport is shared.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Query reads rows from a collection. params uses the record store's filter
// syntax (select, eq, order, ...).
func (c *Client) Query(ctx context.Context, collection string, params url.Values) ([]json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, collection, params, nil)
}

// Insert creates rows in a collection and returns their representation.
func (c *Client) Insert(ctx context.Context, collection string, body any) ([]json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, collection, nil, body)
}

// Update mutates the rows matched by params and returns their representation.
func (c *Client) Update(ctx context.Context, collection string, params url.Values, body any) ([]json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, collection, params, body)
}

// RPC invokes a remote procedure on the record store and returns its raw
// result, which may be a scalar, object, or array.
func (c *Client) RPC(ctx context.Context, fn string, args any) (json.RawMessage, error) {
	data, err := c.doRaw(ctx, http.MethodPost, "rpc/"+fn, nil, args)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		return nil, fmt.Errorf("record store: malformed rpc result")
	}
	return json.RawMessage(data), nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) ([]json.RawMessage, error) {
	data, err := c.doRaw(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}
	return normalizeRows(data)
}

func (c *Client) doRaw(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := *c.base
	u.Path = u.Path + "/" + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("record store: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("record store: build request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		// Mutations should return the resulting rows.
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("record store: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"path":   path,
		}).Warn("record store request failed")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: string(data)}
	}

	return data, nil
}

// normalizeRows validates the response shape at the boundary: the record
// store answers with a JSON array of rows, but single-object responses (rpc
// results, singular selects) are normalized to a one-element set rather than
// guessed at downstream.
func normalizeRows(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("record store: malformed row set: %w", err)
		}
		return rows, nil
	}

	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("record store: malformed response")
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

// Single enforces a one-row cardinality on a query result.
func Single(rows []json.RawMessage) (json.RawMessage, error) {
	switch len(rows) {
	case 0:
		return nil, ErrNoRows
	case 1:
		return rows[0], nil
	default:
		return nil, ErrMultipleRows
	}
}
