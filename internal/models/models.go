package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by content providers when a query has no search hit
// or the matching article has no usable text.
var ErrNotFound = errors.New("no matching article")

// Article is the provider's answer for a single query.
type Article struct {
	Title   string   `json:"title"`
	Extract string   `json:"extract"`
	URL     string   `json:"url"`
	Related []string `json:"related"`
}

// Query outcomes recorded in the journal.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type QueryLog struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Title     string    `json:"title,omitempty"`
	Outcome   string    `json:"outcome"`
	Words     int       `json:"words"`
	LatencyMs int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

type Metrics struct {
	Queries   int   `json:"queries"`
	Words     int   `json:"words"`
	LatencyMs int64 `json:"latency_ms"`
}

type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

type Stats struct {
	TotalQueries      int     `json:"total_queries"`
	FoundQueries      int     `json:"found_queries"`
	NotFoundQueries   int     `json:"not_found_queries"`
	FailedQueries     int     `json:"failed_queries"`
	TotalWords        int     `json:"total_words"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	DatabaseSizeBytes int64   `json:"database_size_bytes"`
}

// VoicePrefs are the narration settings persisted between sessions.
type VoicePrefs struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`
	Pitch   float64 `json:"pitch"`
}
