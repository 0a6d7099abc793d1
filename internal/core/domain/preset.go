package domain

import "time"

// PresetID uniquely identifies a stored prompt preset.
type PresetID string

// Preset is a saved correction directive the editor can reuse instead of
// typing custom instructions each time.
type Preset struct {
	ID        PresetID  `json:"id"`
	Name      string    `json:"name"`
	Directive string    `json:"directive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CorrectionRecord is the persisted trace of a finished correction,
// kept for history and operational insight. The article text itself is
// never stored.
type CorrectionRecord struct {
	JobID            JobID     `json:"jobId"`
	OriginalLength   int       `json:"originalLength"`
	CorrectedLength  int       `json:"correctedLength"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
	Outcome          JobState  `json:"outcome"` // COMPLETED or FAILED
	CreatedAt        time.Time `json:"createdAt"`
}
