// Package api exposes the correction pipeline over HTTP: JSON endpoints
// validated against the embedded OpenAPI document, plus raw SSE and
// file-handling endpoints mounted on the same mux.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corrigo/corrigo/internal/core/domain"
	"github.com/corrigo/corrigo/internal/core/services"
	"github.com/corrigo/corrigo/internal/files"
)

// maxSyncContentLength bounds the synchronous endpoint body; roughly the
// 95k-token engine ceiling expressed in characters.
const maxSyncContentLength = 400000

// PresetStore is the persistence the preset endpoints need.
type PresetStore interface {
	SavePreset(ctx context.Context, p *domain.Preset) error
	ListPresets(ctx context.Context) ([]domain.Preset, error)
	DeletePreset(ctx context.Context, id domain.PresetID) error
}

// HistoryStore lists finished corrections for the history endpoint.
type HistoryStore interface {
	ListCorrectionRecords(ctx context.Context, limit int) ([]domain.CorrectionRecord, error)
}

type Server struct {
	logger    *slog.Logger
	engine    services.Engine
	orch      *services.Orchestrator
	bus       *services.EventBus
	store     *services.JobStore
	presets   PresetStore
	history   HistoryStore
	parser    *files.Parser
	validator *RequestValidator
}

func NewServer(
	logger *slog.Logger,
	engine services.Engine,
	orch *services.Orchestrator,
	bus *services.EventBus,
	store *services.JobStore,
	presets PresetStore,
	history HistoryStore,
	parser *files.Parser,
) (*Server, error) {
	validator, err := NewRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		logger:    logger,
		engine:    engine,
		orch:      orch,
		bus:       bus,
		store:     store,
		presets:   presets,
		history:   history,
		parser:    parser,
		validator: validator,
	}, nil
}

// Handler mounts every route. The SSE endpoint is a raw handler on the
// same mux; OpenAPI validation wraps the whole tree and skips anything the
// document doesn't describe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/correction/correct", s.handleCorrectSync)
	mux.HandleFunc("POST /api/correction/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/correction/history", s.handleHistory)
	mux.HandleFunc("GET /api/correction/options", s.handleOptions)
	mux.HandleFunc("GET /api/correction/test-connection", s.handleTestConnection)

	mux.HandleFunc("POST /api/correction-sse/start-async", s.handleStartAsync)
	mux.HandleFunc("GET /api/correction-sse/correct-async/{id}", s.handleStreamSSE)
	mux.HandleFunc("GET /api/correction-sse/status", s.handleAsyncStatus)

	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/presets", s.handleCreatePreset)
	mux.HandleFunc("DELETE /api/presets/{id}", s.handleDeletePreset)

	mux.HandleFunc("POST /api/files/parse", s.handleParseFile)
	mux.HandleFunc("POST /api/files/export-word", s.handleExportWord)
	mux.HandleFunc("POST /api/files/export-text", s.handleExportText)
	mux.HandleFunc("GET /api/files/supported-formats", s.handleSupportedFormats)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	return s.validator.Middleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
