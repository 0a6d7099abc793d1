package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corrigo/corrigo/internal/core/domain"
)

// JobStore is the process-wide mapping from job id to job record. All
// operations are O(1) under a single mutex; the creation handler, the
// stream handler and the sweep loop all go through it.
type JobStore struct {
	logger    *slog.Logger
	retention time.Duration
	sweepTick time.Duration

	mu   sync.Mutex
	jobs map[domain.JobID]*domain.Job

	now func() time.Time // injectable for expiry tests
}

func NewJobStore(logger *slog.Logger, retention, sweepTick time.Duration) *JobStore {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	if sweepTick <= 0 {
		sweepTick = 5 * time.Minute
	}
	return &JobStore{
		logger:    logger,
		retention: retention,
		sweepTick: sweepTick,
		jobs:      make(map[domain.JobID]*domain.Job),
		now:       time.Now,
	}
}

// Create registers a new job record and returns it. IDs are UUID-based and
// never reused within any record's lifetime.
func (s *JobStore) Create(content, customInstructions string) (domain.Job, error) {
	job := domain.Job{
		ID:                 domain.JobID("corr-" + uuid.NewString()),
		Content:            content,
		CustomInstructions: customInstructions,
		State:              domain.JobStateCreated,
		CreatedAt:          s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return domain.Job{}, fmt.Errorf("job id collision: %s", job.ID)
	}
	s.jobs[job.ID] = &job
	return job, nil
}

// Get is a pure lookup; it does not consume the record.
func (s *JobStore) Get(id domain.JobID) (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return *job, nil
}

// Transition moves a job to the next lifecycle state, enforcing the
// CREATED → STREAMING → {COMPLETED | FAILED} machine.
func (s *JobStore) Transition(id domain.JobID, next domain.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if !job.State.CanTransition(next) {
		return fmt.Errorf("illegal job transition %s → %s", job.State, next)
	}
	job.State = next
	return nil
}

// Delete removes a record. Idempotent; absent ids are not an error.
func (s *JobStore) Delete(id domain.JobID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Sweep deletes every record older than maxAge and returns how many went.
func (s *JobStore) Sweep(maxAge time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, job := range s.jobs {
		if now.Sub(job.CreatedAt) > maxAge {
			delete(s.jobs, id)
			swept++
			s.logger.Info("swept expired job", "job_id", id, "age", now.Sub(job.CreatedAt))
		}
	}
	return swept
}

// Len returns the number of live records.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// ActiveIDs returns up to limit live job ids, for the status endpoint.
func (s *JobStore) ActiveIDs(limit int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, string(id))
	}
	return ids
}

// Run owns the periodic sweep. Blocks until ctx is cancelled, so the
// store's background work starts and stops with the process lifecycle.
func (s *JobStore) Run(ctx context.Context) error {
	s.logger.Info("job store sweep started", "interval", s.sweepTick, "retention", s.retention)
	ticker := time.NewTicker(s.sweepTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job store sweep stopped")
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.retention); n > 0 {
				s.logger.Info("sweep pass finished", "removed", n)
			}
		}
	}
}

// SetClock overrides the store's notion of now. Test hook.
func (s *JobStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
