package services

import (
	"strings"
)

// ContentStats describes a text before correction. Served by the analyze
// endpoint so the front-end can warn about size before submitting.
type ContentStats struct {
	Characters          int     `json:"characters"`
	CharactersNoSpaces  int     `json:"charactersNoSpaces"`
	Words               int     `json:"words"`
	Sentences           int     `json:"sentences"`
	Paragraphs          int     `json:"paragraphs"`
	AverageWordsPerSent int     `json:"averageWordsPerSentence"`
	ReadabilityScore    float64 `json:"readabilityScore"`
	EstimatedTokens     int     `json:"estimatedTokens"`
}

// AnalyzeContent computes submission statistics for a text.
func AnalyzeContent(content string) ContentStats {
	stats := ContentStats{
		Characters:         len(content),
		CharactersNoSpaces: len(stripSpaces(content)),
		Words:              CountWords(content),
		Sentences:          countSentences(content),
		Paragraphs:         countParagraphs(content),
		EstimatedTokens:    EstimateTokens(content),
	}
	if stats.Sentences > 0 {
		stats.AverageWordsPerSent = (stats.Words + stats.Sentences/2) / stats.Sentences
	}
	if stats.Sentences > 0 && stats.Words > 0 {
		// Flesch-style approximation, 1.5 syllables/word for French.
		avgWords := float64(stats.Words) / float64(stats.Sentences)
		score := 206.835 - 1.015*avgWords - 84.6*1.5
		stats.ReadabilityScore = clamp(score, 0, 100)
	}
	return stats
}

// EstimateTokens approximates the upstream token count as length/4,
// rounded up. Coarse on purpose; it only guards the request ceiling.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func countSentences(text string) int {
	n := 0
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func countParagraphs(text string) int {
	n := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func stripSpaces(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
