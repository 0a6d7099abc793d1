package services

import (
	"log/slog"
	"sync"

	"github.com/corrigo/corrigo/internal/core/domain"
)

// StreamEventType names the events of one correction stream.
type StreamEventType string

const (
	StreamEventStart    StreamEventType = "start"
	StreamEventProgress StreamEventType = "progress"
	StreamEventComplete StreamEventType = "complete"
	StreamEventError    StreamEventType = "error"
)

// Terminal reports whether the event ends its stream. Exactly one terminal
// event is emitted per job.
func (t StreamEventType) Terminal() bool {
	return t == StreamEventComplete || t == StreamEventError
}

// StreamEvent is one named event with a JSON payload, ready for framing by
// whichever transport adapter is subscribed.
type StreamEvent struct {
	JobID domain.JobID
	Type  StreamEventType
	Data  []byte // JSON payload
}

// EventBus fans correction stream events out to per-job subscribers. It
// decouples progress emission (orchestrator side) from wire framing
// (SSE handler side).
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.JobID][]chan StreamEvent
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.JobID][]chan StreamEvent),
	}
}

// Subscribe returns a channel receiving events for one job, plus an
// unsubscribe function that closes the channel.
func (b *EventBus) Subscribe(id domain.JobID) (<-chan StreamEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan StreamEvent, 64) // buffered so a slow consumer doesn't stall the publisher
	b.subs[id] = append(b.subs[id], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[id]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[id] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[id]) == 0 {
			delete(b.subs, id)
		}
	}

	return ch, unsub
}

// Publish sends an event to all subscribers of the job. Events for a job
// with no subscriber are dropped; the job store sweep is the backstop for
// records nobody ever streams.
func (b *EventBus) Publish(e StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.JobID] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event channel full, dropping event", "job_id", e.JobID, "type", e.Type)
		}
	}
}
