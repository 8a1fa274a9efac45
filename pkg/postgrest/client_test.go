package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{URL: server.URL, APIKey: "service-key"}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewRequiresURLAndKey(t *testing.T) {
	_, err := New(Config{URL: "https://example.supabase.co"}, zerolog.Nop())
	require.Error(t, err)

	_, err = New(Config{APIKey: "key"}, zerolog.Nop())
	require.Error(t, err)
}

func TestSelectSendsAuthHeadersAndFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/rest/v1/app_user", r.URL.Path)
		require.Equal(t, "service-key", r.Header.Get("apikey"))
		require.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		require.Equal(t, `in.("u-1","u-2")`, r.URL.Query().Get("id"))
		require.Equal(t, "created_at.desc", r.URL.Query().Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"u-1","email":"a@x.com"},{"id":"u-2","email":"b@x.com"}]`))
	})

	var rows []row
	query := NewQuery().In("id", "u-1", "u-2").Order("created_at", true)
	require.NoError(t, client.Select(context.Background(), "app_user", query.Values(), &rows))
	require.Len(t, rows, 2)
	require.Equal(t, "b@x.com", rows[1].Email)
}

func TestSelectOneReturnsNotFoundOnEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		require.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[]`))
	})

	var out row
	err := client.SelectOne(context.Background(), "app_user", NewQuery().Eq("id", "missing").Values(), &out)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSelectOneDecodesFirstRow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"u-1","email":"a@x.com"}]`))
	})

	var out row
	require.NoError(t, client.SelectOne(context.Background(), "app_user", NewQuery().Eq("id", "u-1").Values(), &out))
	require.Equal(t, "a@x.com", out.Email)
}

func TestAPIErrorIsDecoded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"42703","message":"column app_user.nope does not exist"}`))
	})

	var rows []row
	err := client.Select(context.Background(), "app_user", NewQuery().Eq("nope", "1").Values(), &rows)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "42703", apiErr.Code)
	require.Contains(t, apiErr.Error(), "does not exist")
}

func TestInsertRequestsRepresentation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "return=representation", r.Header.Get("Prefer"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var in row
		require.NoError(t, json.Unmarshal(body, &in))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"` + in.ID + `","email":"stored@x.com"}]`))
	})

	var out row
	require.NoError(t, client.Insert(context.Background(), "app_user", row{ID: "u-9"}, &out))
	require.Equal(t, "u-9", out.ID)
	require.Equal(t, "stored@x.com", out.Email)
}

func TestUpdateRequiresFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	})

	err := client.Update(context.Background(), "app_user", nil, map[string]string{"email": "x"}, nil)
	require.Error(t, err)
}

func TestUpdateMinimalReturn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		require.Equal(t, "eq.d-1", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Update(context.Background(), "webhook_deliveries", NewQuery().Eq("id", "d-1").Values(), map[string]string{"status": "sent"}, nil)
	require.NoError(t, err)
}
