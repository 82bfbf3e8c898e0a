package model

import "time"

// TranscriptionRecord is one model-generated transcription of a journal
// page. Records are produced upstream and immutable here.
type TranscriptionRecord struct {
	FileName string         `json:"file_name"`
	Fields   map[string]any `json:"-"`
}

// Session identifies one reviewer's validation run. A resumed review is
// a new session producing a new log.
type Session struct {
	ID        string    `json:"id"`
	Reviewer  string    `json:"reviewer"`
	Dataset   string    `json:"dataset"`
	StartedAt time.Time `json:"started_at"`
	ClosedAt  time.Time `json:"closed_at,omitempty"`
	Judgments int       `json:"judgments"`
	LogPath   string    `json:"log_path,omitempty"`
}

// FieldStat is the per-field accuracy tuple computed over one or more
// validation logs.
type FieldStat struct {
	Field      string  `json:"field"`
	Samples    int     `json:"samples"`
	Agreements int     `json:"agreements"`
	Accuracy   float64 `json:"accuracy"`
}
