package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/corrigo/corrigo/internal/core/domain"
)

// Engine is the upstream correction client the orchestrator drives.
type Engine interface {
	Correct(ctx context.Context, content, instructions string) (*domain.CorrectionResult, error)
	CorrectWithProgress(ctx context.Context, content, instructions string, onProgress domain.ProgressFunc) (*domain.CorrectionResult, error)
	TestConnection(ctx context.Context) bool
}

// HistoryRecorder persists finished corrections. Optional; a nil recorder
// disables history.
type HistoryRecorder interface {
	SaveCorrectionRecord(ctx context.Context, rec domain.CorrectionRecord) error
}

// StreamEndpointPrefix is where a client subscribes to a job's events.
const StreamEndpointPrefix = "/api/correction-sse/correct-async/"

// Orchestrator owns the asynchronous correction lifecycle: it registers
// jobs, drives the engine when the stream opens, and publishes abstract
// stream events on the bus. The transport adapter does the wire framing.
type Orchestrator struct {
	logger  *slog.Logger
	store   *JobStore
	engine  Engine
	bus     *EventBus
	history HistoryRecorder

	now func() time.Time
}

func NewOrchestrator(logger *slog.Logger, store *JobStore, engine Engine, bus *EventBus, history HistoryRecorder) *Orchestrator {
	return &Orchestrator{
		logger:  logger,
		store:   store,
		engine:  engine,
		bus:     bus,
		history: history,
		now:     time.Now,
	}
}

// StartAsync validates and registers a correction job, returning the record
// and the stream endpoint the client must subscribe to.
func (o *Orchestrator) StartAsync(content, customInstructions string) (domain.Job, string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Job{}, "", domain.Validationf("content is required and must be a non-empty string")
	}

	job, err := o.store.Create(content, strings.TrimSpace(customInstructions))
	if err != nil {
		return domain.Job{}, "", err
	}

	o.logger.Info("async correction registered", "job_id", job.ID, "length", len(content))
	return job, StreamEndpointPrefix + string(job.ID), nil
}

// StreamResults drives one job to its terminal state, publishing
// start → progress* → exactly one of complete | error on the bus. The job
// record is deleted on every terminal path, including not-found. ctx is the
// subscriber's context: if the client goes away, the in-flight upstream
// call is cancelled through it.
func (o *Orchestrator) StreamResults(ctx context.Context, id domain.JobID) {
	job, err := o.store.Get(id)
	if err != nil {
		o.publishError(id, "correction not found")
		return
	}

	if err := o.store.Transition(id, domain.JobStateStreaming); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			// Swept between lookup and claim.
			o.publishError(id, "correction not found")
			return
		}
		// Concurrent re-subscription raced us; the other consumer owns the job.
		o.publishError(id, "correction already streaming")
		return
	}

	o.publish(id, StreamEventStart, startPayload{
		Message:   "correction started in background",
		Length:    len(job.Content),
		Timestamp: o.now(),
	})

	onProgress := func(stage, detail string) {
		o.publish(id, StreamEventProgress, progressPayload{
			Stage:     stage,
			Detail:    detail,
			Timestamp: o.now(),
		})
	}

	result, err := o.engine.CorrectWithProgress(ctx, job.Content, job.CustomInstructions, onProgress)
	if err != nil {
		o.finish(ctx, job, domain.JobStateFailed, 0, 0)
		o.logger.Error("async correction failed", "job_id", id, "error", err)
		o.publishError(id, err.Error())
		return
	}

	o.finish(ctx, job, domain.JobStateCompleted, len(result.CorrectedText), result.ProcessingTimeMs)
	o.publish(id, StreamEventComplete, result)
	o.logger.Info("async correction completed", "job_id", id, "processing_ms", result.ProcessingTimeMs)
}

// finish runs the shared terminal path: state transition, store cleanup,
// history record.
func (o *Orchestrator) finish(ctx context.Context, job domain.Job, outcome domain.JobState, correctedLen int, processingMs int64) {
	if err := o.store.Transition(job.ID, outcome); err != nil {
		o.logger.Warn("terminal transition failed", "job_id", job.ID, "outcome", outcome, "error", err)
	}
	o.store.Delete(job.ID)

	if o.history == nil {
		return
	}
	rec := domain.CorrectionRecord{
		JobID:            job.ID,
		OriginalLength:   len(job.Content),
		CorrectedLength:  correctedLen,
		ProcessingTimeMs: processingMs,
		Outcome:          outcome,
		CreatedAt:        o.now(),
	}
	// History uses a detached context: a client disconnect must not lose the record.
	if err := o.history.SaveCorrectionRecord(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Warn("failed to save correction record", "job_id", job.ID, "error", err)
	}
}

type startPayload struct {
	Message   string    `json:"message"`
	Length    int       `json:"length"`
	Timestamp time.Time `json:"timestamp"`
}

type progressPayload struct {
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

type errorPayload struct {
	Message   string    `json:"message"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (o *Orchestrator) publish(id domain.JobID, typ StreamEventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.Error("failed to marshal stream payload", "job_id", id, "type", typ, "error", err)
		return
	}
	o.bus.Publish(StreamEvent{JobID: id, Type: typ, Data: data})
}

func (o *Orchestrator) publishError(id domain.JobID, message string) {
	o.publish(id, StreamEventError, errorPayload{
		Message:   message,
		ID:        string(id),
		Timestamp: o.now(),
	})
}
