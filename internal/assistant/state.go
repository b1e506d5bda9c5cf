package assistant

import (
	"context"
	"sync"

	"github.com/thinkscotty/wikichat/internal/models"
)

const (
	StatusIdle      = "AWAITING INPUT"
	StatusSearching = "SEARCHING..."
	StatusAnalyzing = "ANALYZING..."
	StatusSpeaking  = "SPEAKING..."
	StatusListening = "LISTENING..."
	StatusVoiceOn   = "VOICE ENABLED"
	StatusVoiceOff  = "VOICE DISABLED"
)

// HistorySize is the number of recent article titles kept.
const HistorySize = 5

// State is the single mutable widget state shared by the orchestrator and the
// two speech controllers. mu guards every field and is never held across a
// provider call, a platform call, a sink call or a sleep.
type State struct {
	mu sync.Mutex

	busy    bool
	input   string
	status  string
	history History
	metrics models.Metrics

	voiceEnabled bool
	speaking     bool
	voice        *models.Voice
	rate         float64
	pitch        float64
	utterance    uint64
	keepAlive    context.CancelFunc

	listening bool
	session   uint64
}

// History is a newest-first list of article titles bounded by its limit.
type History struct {
	titles []string
	limit  int
}

func NewHistory(limit int) History {
	return History{limit: limit}
}

// Push records title as the most recent entry, evicting the oldest on overflow.
func (h *History) Push(title string) {
	h.titles = append([]string{title}, h.titles...)
	if len(h.titles) > h.limit {
		h.titles = h.titles[:h.limit]
	}
}

func (h *History) Titles() []string {
	out := make([]string, len(h.titles))
	copy(out, h.titles)
	return out
}

func (h *History) Len() int {
	return len(h.titles)
}

// stopKeepAliveLocked cancels the running keep-alive task, if any.
func (s *State) stopKeepAliveLocked() {
	if s.keepAlive != nil {
		s.keepAlive()
		s.keepAlive = nil
	}
}
