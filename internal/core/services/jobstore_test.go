package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrigo/corrigo/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestJobStoreCreateAndGet(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)

	job, err := store.Create("un article à corriger", "sois bref")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Contains(t, string(job.ID), "corr-")
	assert.Equal(t, domain.JobStateCreated, job.State)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Content, got.Content)
	assert.Equal(t, job.CustomInstructions, got.CustomInstructions)

	// Get does not consume the record.
	_, err = store.Get(job.ID)
	require.NoError(t, err)
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)
	_, err := store.Get("corr-missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStoreTransition(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)
	job, err := store.Create("texte", "")
	require.NoError(t, err)

	require.NoError(t, store.Transition(job.ID, domain.JobStateStreaming))

	// A second claim must fail: exactly one consumer per job.
	err = store.Transition(job.ID, domain.JobStateStreaming)
	assert.Error(t, err)

	require.NoError(t, store.Transition(job.ID, domain.JobStateCompleted))
	assert.Error(t, store.Transition(job.ID, domain.JobStateFailed))
}

func TestJobStoreTransitionUnknown(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)
	err := store.Transition("corr-missing", domain.JobStateStreaming)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStoreDeleteIdempotent(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)
	job, err := store.Create("texte", "")
	require.NoError(t, err)

	store.Delete(job.ID)
	store.Delete(job.ID)

	_, err = store.Get(job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStoreSweepExpiresOldJobs(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	old, err := store.Create("vieux", "")
	require.NoError(t, err)

	store.SetClock(func() time.Time { return now.Add(6 * time.Minute) })
	fresh, err := store.Create("récent", "")
	require.NoError(t, err)

	store.SetClock(func() time.Time { return now.Add(11 * time.Minute) })
	swept := store.Sweep(10 * time.Minute)
	assert.Equal(t, 1, swept)

	_, err = store.Get(old.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestJobStoreLenAndActiveIDs(t *testing.T) {
	store := NewJobStore(testLogger(), 10*time.Minute, 5*time.Minute)
	for i := 0; i < 3; i++ {
		_, err := store.Create("texte", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())
	assert.Len(t, store.ActiveIDs(2), 2)
	assert.Len(t, store.ActiveIDs(10), 3)
}
