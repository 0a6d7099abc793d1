package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/corrigo/corrigo/internal/core/domain"
)

// streamMaxDuration is the server-side ceiling on one stream connection;
// comfortably above the engine's background timeout so it only fires on a
// wedged connection.
const streamMaxDuration = 10 * time.Minute

// handleStreamSSE serves the push-event channel for one job. Events flow
// from the orchestrator through the bus and are framed here; the connection
// closes immediately after the terminal event.
// GET /api/correction-sse/correct-async/{id}
func (s *Server) handleStreamSSE(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(r.PathValue("id"))
	if id == "" {
		http.Error(w, "missing correction id", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithTimeout(r.Context(), streamMaxDuration)
	defer cancel()

	// Subscribe before the orchestrator starts so no event is lost.
	ch, unsub := s.bus.Subscribe(id)
	defer unsub()

	go s.orch.StreamResults(ctx, id)

	for {
		select {
		case <-ctx.Done():
			s.logger.Warn("stream closed before terminal event", "job_id", id, "reason", ctx.Err())
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
			if evt.Type.Terminal() {
				return
			}
		}
	}
}
