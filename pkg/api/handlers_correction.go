package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/corrigo/corrigo/internal/core/services"
)

type correctionRequest struct {
	Content            string `json:"content"`
	CustomInstructions string `json:"customInstructions"`
}

// handleCorrectSync runs the short-timeout request/response correction path.
// POST /api/correction/correct
func (s *Server) handleCorrectSync(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is missing or invalid",
			"the content to correct is required and must be a non-empty string")
		return
	}
	if len(req.Content) > maxSyncContentLength {
		writeError(w, http.StatusBadRequest, "content too long",
			fmt.Sprintf("content is %d characters; maximum allowed: %d", len(req.Content), maxSyncContentLength))
		return
	}

	s.logger.Info("sync correction started", "length", len(req.Content),
		"custom_instructions", req.CustomInstructions != "")

	result, err := s.engine.Correct(r.Context(), req.Content, req.CustomInstructions)
	if err != nil {
		s.logger.Error("sync correction failed", "error", err)
		writeDomainError(w, err)
		return
	}

	s.logger.Info("sync correction finished",
		"corrected_length", len(result.CorrectedText),
		"processing_ms", result.ProcessingTimeMs)
	writeJSON(w, http.StatusOK, result)
}

// handleAnalyze computes submission statistics without touching the engine.
// POST /api/correction/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, services.AnalyzeContent(req.Content))
}

// handleHistory lists recent finished corrections.
// GET /api/correction/history?limit=50
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := s.history.ListCorrectionRecords(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list correction history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// handleStartAsync registers a job and returns its stream endpoint.
// POST /api/correction-sse/start-async
func (s *Server) handleStartAsync(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	job, endpoint, err := s.orch.StartAsync(req.Content, req.CustomInstructions)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "started",
		"id":             job.ID,
		"streamEndpoint": endpoint,
		"message":        "correction started in background",
	})
}

// handleAsyncStatus reports how many corrections are pending.
// GET /api/correction-sse/status
func (s *Server) handleAsyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"activeCorrections": s.store.Len(),
		"activeIds":         s.store.ActiveIDs(10),
	})
}

// handleTestConnection pings the upstream engine. Distinct from /api/health,
// which only says the process is up.
// GET /api/correction/test-connection
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if s.engine.TestConnection(r.Context()) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "success",
			"message":   "correction engine reachable",
			"timestamp": time.Now(),
		})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"status":    "error",
		"message":   "correction engine unreachable",
		"timestamp": time.Now(),
	})
}

type correctionOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// correctionOptions is the static catalog of correction angles offered to
// the front-end. French wording, like the directive: it is user-visible
// editorial vocabulary, not logic.
var correctionOptions = map[string][]correctionOption{
	"linguistiques": {
		{ID: "orthographe", Label: "Orthographe", Description: "Correction des fautes d'orthographe"},
		{ID: "grammaire", Label: "Grammaire", Description: "Vérification de la grammaire et conjugaison"},
		{ID: "syntaxe", Label: "Syntaxe", Description: "Amélioration de la syntaxe des phrases"},
		{ID: "ponctuation", Label: "Ponctuation", Description: "Correction de la ponctuation"},
	},
	"stylistiques": {
		{ID: "formulation", Label: "Reformulation", Description: "Amélioration de la formulation des phrases"},
		{ID: "clarte", Label: "Clarté", Description: "Amélioration de la clarté et lisibilité"},
		{ID: "transitions", Label: "Transitions", Description: "Amélioration des transitions entre paragraphes"},
		{ID: "repetitions", Label: "Répétitions", Description: "Élimination des répétitions inutiles"},
	},
	"factuelles": {
		{ID: "sources", Label: "Sources", Description: "Identification des sources manquantes"},
		{ID: "chiffres", Label: "Données chiffrées", Description: "Vérification des chiffres et statistiques"},
		{ID: "dates", Label: "Dates", Description: "Vérification de l'exactitude des dates"},
		{ID: "noms", Label: "Noms propres", Description: "Vérification des noms, lieux, entreprises"},
	},
	"structurelles": {
		{ID: "structure", Label: "Structure", Description: "Amélioration de la structure générale"},
		{ID: "titres", Label: "Titres", Description: "Optimisation des titres et sous-titres"},
		{ID: "conclusion", Label: "Conclusion", Description: "Renforcement de la conclusion"},
	},
}

// handleOptions serves the correction-option catalog.
// GET /api/correction/options
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, correctionOptions)
}
