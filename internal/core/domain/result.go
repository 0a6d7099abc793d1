package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// FactChecksNone is returned when the engine's output carried no
// fact-check section. French on purpose: it is user-visible text for a
// French editorial audience, same as the default directive.
const FactChecksNone = "Aucune vérification factuelle effectuée"

// CorrectionResult is the outcome of one upstream correction call.
type CorrectionResult struct {
	OriginalText  string `json:"originalText"`
	CorrectedText string `json:"correctedText"`

	// FactChecks holds the labeled trailing section extracted from the
	// engine output, FactChecksNone when absent. A suspected-truncation
	// warning is prepended here rather than raised as an error.
	FactChecks string `json:"factChecks"`

	// UsageStats is the upstream token accounting, passed through opaque.
	UsageStats json.RawMessage `json:"usageStats"`

	ProcessingTimeMs int64       `json:"processingTimeMs"`
	Changes          ChangeStats `json:"changes"`
	Timestamp        time.Time   `json:"timestamp"`
}

// ChangeStats compares original and corrected text. Computed locally,
// never supplied by the upstream engine.
type ChangeStats struct {
	OriginalLength   int `json:"originalLength"`
	CorrectedLength  int `json:"correctedLength"`
	OriginalWords    int `json:"originalWords"`
	CorrectedWords   int `json:"correctedWords"`
	WordsChanged     int `json:"wordsChanged"`
	SentencesChanged int `json:"sentencesChanged"`
	PercentageChange int `json:"percentageChange"`
}

// ComputeChangeStats derives change statistics from original and corrected
// text. Pure string math; the upstream engine never supplies these.
func ComputeChangeStats(original, corrected string) ChangeStats {
	origWords := len(strings.Fields(original))
	corrWords := len(strings.Fields(corrected))
	origSentences := countSentences(original)
	corrSentences := countSentences(corrected)

	stats := ChangeStats{
		OriginalLength:   len(original),
		CorrectedLength:  len(corrected),
		OriginalWords:    origWords,
		CorrectedWords:   corrWords,
		WordsChanged:     intAbs(corrWords - origWords),
		SentencesChanged: intAbs(corrSentences - origSentences),
	}
	if len(original) > 0 {
		delta := float64(intAbs(len(corrected) - len(original)))
		stats.PercentageChange = int(delta/float64(len(original))*100 + 0.5)
	}
	return stats
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

func intAbs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ProgressFunc receives progress checkpoints from the engine client while a
// background correction runs. Stage is one of the defined checkpoint names
// (init, prompt_ready, preparation, api_call, processing).
type ProgressFunc func(stage, detail string)
