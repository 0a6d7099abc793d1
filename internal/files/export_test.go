package files

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportWord(t *testing.T) {
	data, filename, err := ExportWord("<p>Premier paragraphe.</p>\n\n<p>Second.</p>", "Mon article", true)
	require.NoError(t, err)

	// A .docx is a zip container.
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
	assert.Contains(t, filename, "Mon_article")
	assert.Contains(t, filename, ".docx")
}

func TestExportWordRejectsEmptyContent(t *testing.T) {
	_, _, err := ExportWord("   ", "titre", false)
	assert.Error(t, err)
}

func TestExportWordDefaultFilename(t *testing.T) {
	_, filename, err := ExportWord("du texte", "", false)
	require.NoError(t, err)
	assert.Contains(t, filename, "article_corrige")
}

func TestExportText(t *testing.T) {
	data, filename := ExportText("contenu corrigé", "Titre")
	assert.Equal(t, "Titre\n=====\n\ncontenu corrigé", string(data))
	assert.Contains(t, filename, "Titre")
	assert.Contains(t, filename, ".txt")
}

func TestExportTextWithoutTitle(t *testing.T) {
	data, filename := ExportText("contenu", "")
	assert.Equal(t, "contenu", string(data))
	assert.Contains(t, filename, "article_corrige")
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "Texte fort et net.", stripMarkup("<p>Texte <strong>fort</strong> et <em>net</em>.</p>"))
	assert.Equal(t, "", stripMarkup("<br/>"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Mon_article", sanitizeFilename("Mon article"))
	assert.Equal(t, "titre", sanitizeFilename("!!!titre???"))
	assert.Equal(t, "document", sanitizeFilename("???"))
}
