package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corrigo/corrigo/internal/core/domain"
)

// handleListPresets returns all stored prompt presets.
// GET /api/presets
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.ListPresets(r.Context())
	if err != nil {
		s.logger.Error("failed to list presets", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list presets", err.Error())
		return
	}
	if presets == nil {
		presets = []domain.Preset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"presets": presets,
		"count":   len(presets),
	})
}

// handleCreatePreset stores a reusable correction directive.
// POST /api/presets
func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Directive string `json:"directive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Directive) == "" {
		writeError(w, http.StatusBadRequest, "name and directive are required", "")
		return
	}

	now := time.Now()
	preset := domain.Preset{
		ID:        domain.PresetID(uuid.NewString()),
		Name:      strings.TrimSpace(req.Name),
		Directive: req.Directive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.presets.SavePreset(r.Context(), &preset); err != nil {
		s.logger.Error("failed to save preset", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preset", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

// handleDeletePreset removes a preset.
// DELETE /api/presets/{id}
func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing preset id", "")
		return
	}
	if err := s.presets.DeletePreset(r.Context(), domain.PresetID(id)); err != nil {
		s.logger.Error("failed to delete preset", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete preset", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
