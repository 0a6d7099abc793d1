package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/corrigo/corrigo/internal/core/domain"
)

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// writeDomainError maps a classified error onto the HTTP surface, keeping
// category, detail and hint visible to the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		writeError(w, http.StatusInternalServerError, "internal error", err.Error())
		return
	}
	writeJSON(w, statusForCategory(de.Category), errorResponse{
		Error:      string(de.Category),
		Details:    de.Message,
		Suggestion: de.Hint,
	})
}

func statusForCategory(cat domain.ErrorCategory) int {
	switch cat {
	case domain.CategoryValidation, domain.CategoryBadRequest:
		return http.StatusBadRequest
	case domain.CategoryAuth:
		return http.StatusUnauthorized
	case domain.CategoryForbidden:
		return http.StatusForbidden
	case domain.CategoryRateLimit:
		return http.StatusTooManyRequests
	case domain.CategoryNotFound:
		return http.StatusNotFound
	case domain.CategoryUpstream:
		return http.StatusBadGateway
	case domain.CategoryNetwork, domain.CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
