package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrigo/corrigo/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeSSE(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// streamServer serves the async pair: start-async plus one canned stream.
func streamServer(t *testing.T, stream func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/correction-sse/start-async", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"id":             "corr-1",
			"streamEndpoint": "/api/correction-sse/correct-async/corr-1",
		})
	})
	mux.HandleFunc("GET /api/correction-sse/correct-async/corr-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		stream(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCorrectRoutesShortContentSync(t *testing.T) {
	var syncCalled bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/correction/correct", func(w http.ResponseWriter, r *http.Request) {
		syncCalled = true
		json.NewEncoder(w).Encode(domain.CorrectionResult{CorrectedText: "corrigé"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, testLogger(), WithSyncThreshold(100))
	result, err := c.Correct(context.Background(), "court", "", nil)
	require.NoError(t, err)
	assert.True(t, syncCalled)
	assert.Equal(t, "corrigé", result.CorrectedText)
}

func TestCorrectRoutesLongContentAsync(t *testing.T) {
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "start", `{"message":"started"}`)
		writeSSE(w, "complete", `{"correctedText":"long corrigé"}`)
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(10))
	result, err := c.Correct(context.Background(), strings.Repeat("a", 11), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "long corrigé", result.CorrectedText)
}

func TestCorrectThresholdBoundary(t *testing.T) {
	var syncHits, asyncHits int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/correction/correct", func(w http.ResponseWriter, r *http.Request) {
		syncHits++
		json.NewEncoder(w).Encode(domain.CorrectionResult{})
	})
	mux.HandleFunc("POST /api/correction-sse/start-async", func(w http.ResponseWriter, r *http.Request) {
		asyncHits++
		json.NewEncoder(w).Encode(map[string]string{
			"id":             "corr-1",
			"streamEndpoint": "/api/correction-sse/correct-async/corr-1",
		})
	})
	mux.HandleFunc("GET /api/correction-sse/correct-async/corr-1", func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "complete", `{}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, testLogger(), WithSyncThreshold(10))

	// Exactly at the threshold stays on the request/response path.
	_, err := c.Correct(context.Background(), strings.Repeat("a", 10), "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, syncHits)
	assert.Equal(t, 0, asyncHits)

	// One character past switches to the stream.
	_, err = c.Correct(context.Background(), strings.Repeat("a", 11), "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, syncHits)
	assert.Equal(t, 1, asyncHits)
}

func TestCorrectSyncErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/correction/correct", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{
			"error":      "rate_limit",
			"details":    "engine rate limit reached",
			"suggestion": "wait a moment and retry",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, testLogger())
	_, err := c.Correct(context.Background(), "texte", "", nil)
	require.Error(t, err)
	assert.Equal(t, domain.CategoryRateLimit, domain.CategoryOf(err))
	assert.Contains(t, err.Error(), "rate limit")
}

func TestCorrectStreamReportsProgress(t *testing.T) {
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "start", `{"message":"started"}`)
		writeSSE(w, "progress", `{"stage":"api_call","detail":"calling"}`)
		writeSSE(w, "complete", `{"correctedText":"ok"}`)
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(1))
	var stages []string
	_, err := c.Correct(context.Background(), "texte", "",
		func(stage, detail string) { stages = append(stages, stage) })
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "api_call"}, stages)
}

func TestCorrectStreamSkipsMalformedProgress(t *testing.T) {
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "progress", `{not json`)
		writeSSE(w, "complete", `{"correctedText":"ok"}`)
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(1))
	result, err := c.Correct(context.Background(), "texte", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.CorrectedText)
}

func TestCorrectStreamMalformedTerminalIsFatal(t *testing.T) {
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "complete", `{broken`)
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(1))
	_, err := c.Correct(context.Background(), "texte", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion event")
}

func TestCorrectStreamErrorEvent(t *testing.T) {
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "start", `{"message":"started"}`)
		writeSSE(w, "error", `{"message":"correction not found"}`)
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(1))
	_, err := c.Correct(context.Background(), "texte", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correction not found")
}

func TestCorrectStreamClosedWithoutTerminal(t *testing.T) {
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "start", `{"message":"started"}`)
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(1))
	_, err := c.Correct(context.Background(), "texte", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestCorrectStreamTimeout(t *testing.T) {
	// The handler hangs until the client gives up; it must also unblock on
	// client disconnect or the server's Close would wait on it forever.
	srv := streamServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, "start", `{"message":"started"}`)
		<-r.Context().Done()
	})

	c := New(srv.URL, testLogger(), WithSyncThreshold(1), WithStreamTimeout(100*time.Millisecond))
	_, err := c.Correct(context.Background(), "texte", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStreamTimeout), "got: %v", err)
}

func TestStartAsyncFailureSurfacesServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/correction-sse/start-async", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "validation",
			"details": "content is required",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL, testLogger(), WithSyncThreshold(1))
	_, err := c.Correct(context.Background(), "texte", "", nil)
	require.Error(t, err)
	assert.Equal(t, domain.CategoryBadRequest, domain.CategoryOf(err))
}
