package recordstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := New(serverURL, "test-api-key", nil, testLog())
	require.NoError(t, err)
	return client
}

func TestClientQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/org_members", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "eq.abc", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	params := url.Values{}
	params.Set("user_id", "eq.abc")

	rows, err := client.WithToken("user-token").Query(context.Background(), "org_members", params)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestClientQueryNormalizesSingleObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	rows, err := client.Query(context.Background(), "org_members", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `{"id":1}`, string(rows[0]))
}

func TestClientInsertSendsPrefer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":9}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	rows, err := client.Insert(context.Background(), "contacts", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"permission denied"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Query(context.Background(), "org_members", nil)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}

func TestClientRPCReturnsRawResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rpc/count_contacts", r.URL.Path)
		w.Write([]byte(`42`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	result, err := client.RPC(context.Background(), "count_contacts", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", string(result))
}

func TestSingle(t *testing.T) {
	one := []json.RawMessage{json.RawMessage(`{"id":1}`)}

	row, err := Single(one)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(row))

	_, err = Single(nil)
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Single(append(one, json.RawMessage(`{"id":2}`)))
	assert.ErrorIs(t, err, ErrMultipleRows)
}
