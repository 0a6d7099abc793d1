package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/corrigo/corrigo/internal/files"
)

// handleParseFile extracts plain text from an uploaded document.
// POST /api/files/parse (multipart, field "file")
func (s *Server) handleParseFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(files.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided",
			"attach the document under the \"file\" form field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, files.MaxFileSize+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload", err.Error())
		return
	}

	extraction, err := s.parser.Parse(header.Filename, data)
	if err != nil {
		s.writeParseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"content":  extraction.Content,
		"metadata": extraction.Metadata,
	})
}

func (s *Server) writeParseError(w http.ResponseWriter, err error) {
	var unsupported *files.UnsupportedFormatError
	switch {
	case errors.Is(err, files.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large", err.Error())
	case errors.As(err, &unsupported):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported format", err.Error())
	case errors.Is(err, files.ErrEmptyContent):
		writeError(w, http.StatusUnprocessableEntity, "empty document", err.Error())
	default:
		s.logger.Error("file parse failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to parse file", err.Error())
	}
}

type exportRequest struct {
	Content         string `json:"content"`
	Title           string `json:"title"`
	IncludeMetadata bool   `json:"includeMetadata"`
}

// handleExportWord renders corrected text as a downloadable Word document.
// POST /api/files/export-word
func (s *Server) handleExportWord(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	data, filename, err := files.ExportWord(req.Content, req.Title, req.IncludeMetadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to export document", err.Error())
		return
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleExportText renders corrected text as a plain-text download.
// POST /api/files/export-text
func (s *Server) handleExportText(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "no content to export", "")
		return
	}

	data, filename := files.ExportText(req.Content, req.Title)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleSupportedFormats advertises the accepted upload formats.
// GET /api/files/supported-formats
func (s *Server) handleSupportedFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats":     files.SupportedExtensions(),
		"maxFileSize": files.MaxFileSize,
	})
}
