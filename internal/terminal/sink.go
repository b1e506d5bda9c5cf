package terminal

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

// Sink forwards assistant updates into a running bubbletea program. Updates
// that arrive before Attach are dropped; the app seeds itself from a
// snapshot instead.
type Sink struct {
	mu     sync.Mutex
	send   func(tea.Msg)
	nextID atomic.Int64
}

func NewSink() *Sink {
	return &Sink{}
}

// Attach routes updates to send, normally (*tea.Program).Send.
func (s *Sink) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

func (s *Sink) emit(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

type stream struct {
	sink *Sink
	id   int64
}

func (st *stream) Append(text string) { st.sink.emit(appendMsg{id: st.id, text: text}) }

func (st *stream) Close() {}

func (s *Sink) AppendMessage(role assistant.Role, text string) {
	s.emit(messageMsg{role: role, text: text})
}

func (s *Sink) BeginMessage(role assistant.Role) assistant.MessageStream {
	id := s.nextID.Add(1)
	s.emit(beginMsg{id: id, role: role})
	return &stream{sink: s, id: id}
}

func (s *Sink) SetStatus(status string)               { s.emit(statusMsg(status)) }
func (s *Sink) SetBusy(busy bool)                     { s.emit(busyMsg(busy)) }
func (s *Sink) SetInput(text string)                  { s.emit(inputMsg(text)) }
func (s *Sink) SetSummary(summary, title, url string) { s.emit(summaryMsg{summary, title, url}) }
func (s *Sink) SetRelated(titles []string)            { s.emit(relatedMsg(titles)) }
func (s *Sink) SetHistory(titles []string)            { s.emit(historyMsg(titles)) }
func (s *Sink) SetMetrics(m models.Metrics)           { s.emit(metricsMsg(m)) }
func (s *Sink) SetVoice(v assistant.VoiceState)       { s.emit(voiceMsg(v)) }
func (s *Sink) SetDictation(d assistant.DictationState) {
	s.emit(dictationMsg(d))
}
