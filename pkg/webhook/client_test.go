package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, url string, retries uint64) *Client {
	t.Helper()
	client, err := New(Config{
		URL:             url,
		Secret:          "s3cret",
		Timeout:         time.Second,
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	require.Error(t, err)
}

func TestSendPostsJSONWithSecret(t *testing.T) {
	var received map[string]interface{}
	var secret, contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Webhook-Secret")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, 3).Send(context.Background(), map[string]string{"submission_id": "sub-1"})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, result.StatusCode)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, "s3cret", secret)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "sub-1", received["submission_id"])
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, 4).Send(context.Background(), map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, 3, result.Attempts)
	require.Equal(t, http.StatusOK, result.StatusCode)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("unknown project"))
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, 4).Send(context.Background(), map[string]string{"k": "v"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRejected)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, 1, result.Attempts)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	require.Equal(t, "unknown project", statusErr.Body)
}

func TestSendGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, 2).Send(context.Background(), map[string]string{"k": "v"})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrRejected))
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Equal(t, 3, result.Attempts)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestSendStopsWhenContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, server.URL, 10).Send(ctx, map[string]string{"k": "v"})
	require.Error(t, err)
}

func TestSendRetriesTooManyRequests(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, 3).Send(context.Background(), map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Attempts)
	require.Equal(t, http.StatusOK, result.StatusCode)
}

func TestSendAppliesTimeoutPerAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(Config{
		URL:             server.URL,
		Timeout:         100 * time.Millisecond,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)

	result, err := client.Send(context.Background(), map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Attempts)
	require.Equal(t, http.StatusOK, result.StatusCode)
}

func TestSendReportsNoStatusAfterTrailingNetworkError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer server.Close()

	result, err := newTestClient(t, server.URL, 1).Send(context.Background(), map[string]string{"k": "v"})
	require.Error(t, err)
	require.Equal(t, 2, result.Attempts)
	require.Zero(t, result.StatusCode)

	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}
