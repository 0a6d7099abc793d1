package domain

import (
	"errors"
	"time"
)

// JobID uniquely identifies a pending correction job.
type JobID string

// JobState is the explicit lifecycle of a correction job.
type JobState string

const (
	JobStateCreated   JobState = "CREATED"
	JobStateStreaming JobState = "STREAMING"
	JobStateCompleted JobState = "COMPLETED"
	JobStateFailed    JobState = "FAILED"
)

// CanTransition reports whether moving from s to next is a legal
// lifecycle step: CREATED → STREAMING → {COMPLETED | FAILED}.
// There is no way back out of a terminal state.
func (s JobState) CanTransition(next JobState) bool {
	switch s {
	case JobStateCreated:
		// A job that never reaches streaming can still fail (expiry).
		return next == JobStateStreaming || next == JobStateFailed
	case JobStateStreaming:
		return next == JobStateCompleted || next == JobStateFailed
	default:
		return false
	}
}

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Job is a registered asynchronous correction awaiting its single stream
// consumer. Content and instructions are immutable after creation.
type Job struct {
	ID                 JobID     `json:"id"`
	Content            string    `json:"content"`
	CustomInstructions string    `json:"customInstructions,omitempty"`
	State              JobState  `json:"state"`
	CreatedAt          time.Time `json:"createdAt"`
}

var (
	ErrJobNotFound = errors.New("job not found")
)
