package assistant

import "github.com/thinkscotty/wikichat/internal/models"

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MessageStream receives a message that is revealed incrementally.
type MessageStream interface {
	Append(text string)
	Close()
}

// VoiceState is what a surface needs to draw the narration controls.
type VoiceState struct {
	Available bool    `json:"available"`
	Enabled   bool    `json:"enabled"`
	Speaking  bool    `json:"speaking"`
	Voice     string  `json:"voice,omitempty"`
	Rate      float64 `json:"rate"`
	Pitch     float64 `json:"pitch"`
}

// DictationState drives the microphone control. Unavailable means hidden.
type DictationState struct {
	Available bool `json:"available"`
	Listening bool `json:"listening"`
}

// Sink is the set of rendered surfaces the assistant updates. Implementations
// must be safe for concurrent use.
type Sink interface {
	AppendMessage(role Role, text string)
	BeginMessage(role Role) MessageStream
	SetStatus(status string)
	SetBusy(busy bool)
	SetInput(text string)
	SetSummary(summary, title, url string)
	SetRelated(titles []string)
	SetHistory(titles []string)
	SetMetrics(m models.Metrics)
	SetVoice(v VoiceState)
	SetDictation(d DictationState)
}

// Snapshot is a point-in-time copy of the assistant state.
type Snapshot struct {
	Status    string         `json:"status"`
	Busy      bool           `json:"busy"`
	Input     string         `json:"input"`
	History   []string       `json:"history"`
	Metrics   models.Metrics `json:"metrics"`
	Voice     VoiceState     `json:"voice"`
	Dictation DictationState `json:"dictation"`
}
