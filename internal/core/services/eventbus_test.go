package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrigo/corrigo/internal/core/domain"
)

func TestEventBusDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(testLogger())
	id := domain.JobID("corr-1")

	ch, unsub := bus.Subscribe(id)
	defer unsub()

	bus.Publish(StreamEvent{JobID: id, Type: StreamEventStart, Data: []byte(`{}`)})

	evt := <-ch
	assert.Equal(t, StreamEventStart, evt.Type)
	assert.Equal(t, id, evt.JobID)
}

func TestEventBusIsolatesJobs(t *testing.T) {
	bus := NewEventBus(testLogger())

	chA, unsubA := bus.Subscribe("corr-a")
	defer unsubA()
	chB, unsubB := bus.Subscribe("corr-b")
	defer unsubB()

	bus.Publish(StreamEvent{JobID: "corr-a", Type: StreamEventProgress})

	assert.Len(t, chA, 1)
	assert.Len(t, chB, 0)
}

func TestEventBusDropsWithoutSubscriber(t *testing.T) {
	bus := NewEventBus(testLogger())
	// Must not panic or block.
	bus.Publish(StreamEvent{JobID: "corr-nobody", Type: StreamEventError})
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus(testLogger())
	ch, unsub := bus.Subscribe("corr-1")

	unsub()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe is a no-op.
	bus.Publish(StreamEvent{JobID: "corr-1", Type: StreamEventComplete})
}

func TestEventBusDropsWhenChannelFull(t *testing.T) {
	bus := NewEventBus(testLogger())
	ch, unsub := bus.Subscribe("corr-1")
	defer unsub()

	for i := 0; i < 70; i++ {
		bus.Publish(StreamEvent{JobID: "corr-1", Type: StreamEventProgress})
	}

	// Channel capacity is 64; overflow is dropped, never blocked on.
	require.Equal(t, 64, len(ch))
}

func TestStreamEventTypeTerminal(t *testing.T) {
	assert.False(t, StreamEventStart.Terminal())
	assert.False(t, StreamEventProgress.Terminal())
	assert.True(t, StreamEventComplete.Terminal())
	assert.True(t, StreamEventError.Terminal())
}
