package files

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/corrigo/corrigo/internal/core/services"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// ExportWord renders corrected text (plain or lightly marked-up HTML) as a
// Word document. Returns the document bytes and a suggested filename.
func ExportWord(content, title string, includeMetadata bool) ([]byte, string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, "", fmt.Errorf("no content to export")
	}

	w := docx.New().WithDefaultTheme()

	if title != "" {
		w.AddParagraph().AddText(title).Size("32").Bold()
	}

	if includeMetadata {
		meta := w.AddParagraph()
		meta.AddText(fmt.Sprintf("Document généré le %s", time.Now().Format("02/01/2006 15:04"))).
			Size("20").Italic().Color("666666")
		stats := w.AddParagraph()
		stats.AddText(fmt.Sprintf("Longueur: %d caractères, %d mots",
			len(content), services.CountWords(content))).
			Size("20").Italic().Color("666666")
	}

	for _, block := range strings.Split(content, "\n\n") {
		text := stripMarkup(block)
		if text == "" {
			continue
		}
		w.AddParagraph().AddText(text).Size("24")
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, "", fmt.Errorf("render docx: %w", err)
	}

	base := title
	if base == "" {
		base = "article_corrige"
	}
	filename := fmt.Sprintf("%s_%d.docx", sanitizeFilename(base), time.Now().UnixMilli())
	return buf.Bytes(), filename, nil
}

// ExportText renders a plain-text fallback with an underlined title.
func ExportText(content, title string) ([]byte, string) {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(title)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("=", len(title)))
		sb.WriteString("\n\n")
	}
	sb.WriteString(content)

	base := title
	if base == "" {
		base = "article_corrige"
	}
	filename := fmt.Sprintf("%s_%d.txt", sanitizeFilename(base), time.Now().UnixMilli())
	return []byte(sb.String()), filename
}

// stripMarkup flattens the engine's lightweight HTML to plain runs; the
// markup only carries presentation the Word export does not reproduce.
func stripMarkup(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

func sanitizeFilename(s string) string {
	s = unsafeFilenameRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "document"
	}
	return s
}
