// Package files extracts plain text from uploaded documents and renders
// corrected text back out as Word documents. The correction core treats it
// purely as a source and sink of text.
package files

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/corrigo/corrigo/internal/core/services"
)

// MaxFileSize is the upload ceiling.
const MaxFileSize = 50 << 20 // 50MB

var supportedExtensions = []string{".txt", ".pdf", ".doc", ".docx"}

// SupportedExtensions lists the accepted upload formats.
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

var (
	ErrFileTooLarge = errors.New("file exceeds the 50MB limit")
	ErrEmptyContent = errors.New("file is empty or no text could be extracted")
)

// UnsupportedFormatError reports an extension outside the accepted set.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s (accepted: %s)",
		e.Extension, strings.Join(supportedExtensions, ", "))
}

// Extraction is the parsed text plus its metadata.
type Extraction struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	OriginalName string    `json:"originalName"`
	Extension    string    `json:"extension"`
	Size         int       `json:"size"`
	CharCount    int       `json:"charCount"`
	WordCount    int       `json:"wordCount"`
	ParsedAt     time.Time `json:"parsedAt"`
}

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse extracts plain text from an uploaded document.
func (p *Parser) Parse(filename string, data []byte) (*Extraction, error) {
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !supported(ext) {
		return nil, &UnsupportedFormatError{Extension: ext}
	}

	var (
		content string
		err     error
	)
	switch ext {
	case ".txt":
		content, err = parseText(data)
	case ".pdf":
		content, err = parsePDF(data)
	case ".docx", ".doc":
		content, err = parseWord(data, ext)
	}
	if err != nil {
		return nil, err
	}

	content = CleanContent(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	p.logger.Info("file parsed", "name", filename, "extension", ext, "chars", len(content))

	return &Extraction{
		Content: content,
		Metadata: Metadata{
			OriginalName: filename,
			Extension:    ext,
			Size:         len(data),
			CharCount:    len(content),
			WordCount:    services.CountWords(content),
			ParsedAt:     time.Now(),
		},
	}, nil
}

func supported(ext string) bool {
	for _, s := range supportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

// parseText reads a text file as UTF-8, falling back to Latin-1 for legacy
// exports from French editorial tools.
func parseText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text file: %w", err)
	}
	return string(decoded), nil
}

func parsePDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read PDF: %w", err)
	}
	text, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("extract PDF text: %w", err)
	}
	return buf.String(), nil
}

func parseWord(data []byte, ext string) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if ext == ".doc" {
			return "", fmt.Errorf("read legacy Word file: %w (save it as .docx and retry)", err)
		}
		return "", fmt.Errorf("read Word file: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(v.String())
			sb.WriteString("\n")
		case *docx.Table:
			sb.WriteString(v.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

var (
	controlCharsRe    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	trailingSpaceRe   = regexp.MustCompile(`(?m)[ \t]+$`)
	multiNewlineRe    = regexp.MustCompile(`\n{3,}`)
	multiWhitespaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanContent normalizes extracted text: strips control characters,
// normalizes newlines, collapses runs of blank lines and spaces.
func CleanContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = controlCharsRe.ReplaceAllString(content, "")
	content = trailingSpaceRe.ReplaceAllString(content, "")
	content = multiNewlineRe.ReplaceAllString(content, "\n\n")
	content = multiWhitespaceRe.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
