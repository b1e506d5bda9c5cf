package assistant

import (
	"context"

	"github.com/thinkscotty/wikichat/internal/models"
)

// Provider resolves a free-text query to an article. Implementations return
// an error wrapping models.ErrNotFound when nothing usable matches.
type Provider interface {
	Lookup(ctx context.Context, query string) (models.Article, error)
}

// Journal records accepted queries. Failures are logged, never surfaced.
type Journal interface {
	RecordQuery(entry models.QueryLog) error
}

// Utterance is one text-to-speech playback request.
type Utterance struct {
	Text   string        `json:"text"`
	Voice  *models.Voice `json:"voice,omitempty"`
	Rate   float64       `json:"rate"`
	Pitch  float64       `json:"pitch"`
	Volume float64       `json:"volume"`
}

// SpeechEvents are the lifecycle callbacks of a single utterance. A
// Synthesizer may invoke them from any goroutine, including from inside Speak.
type SpeechEvents struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
	OnPause func()
}

// Synthesizer is a platform text-to-speech facility.
type Synthesizer interface {
	// Voices returns the currently known voices; the list may be empty until
	// the platform has loaded them.
	Voices() []models.Voice
	Speak(u Utterance, ev SpeechEvents) error
	Cancel()
	Pause()
	Resume()
	Speaking() bool
}

// RecognitionEvents are the callbacks of one dictation session.
type RecognitionEvents struct {
	OnResult func(transcript string, final bool)
	OnError  func(code string)
	OnEnd    func()
}

// Recognizer is a platform speech-to-text facility.
type Recognizer interface {
	Start(ev RecognitionEvents) error
	Stop()
}
