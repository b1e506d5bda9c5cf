package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

// clientBuffer bounds how far a slow browser may fall behind before events
// are dropped for it.
const clientBuffer = 1024

// Event is one server-sent event. Every event is delivered as a single JSON
// object on a data line.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub fans events out to connected browsers. It is the render sink of the
// assistant in serve mode and also carries speech commands to the page.
type Hub struct {
	mu      sync.Mutex
	clients map[string]chan []byte
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan []byte)}
}

// Subscribe registers a new client. The channel is closed by Unsubscribe or
// Close.
func (h *Hub) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, clientBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.clients[id] = ch
	slog.Debug("Event client connected", "id", id, "clients", len(h.clients))
	return id, ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
		slog.Debug("Event client disconnected", "id", id, "clients", len(h.clients))
	}
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.clients {
		delete(h.clients, id)
		close(ch)
	}
}

// Publish encodes an event and queues it for every client.
func (h *Hub) Publish(typ string, data any) {
	payload, err := json.Marshal(Event{Type: typ, Data: data})
	if err != nil {
		slog.Error("Failed to encode event", "type", typ, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			slog.Warn("Event client too slow, dropping event", "id", id, "type", typ)
		}
	}
}

type messageStream struct {
	hub *Hub
	id  string
}

func (m *messageStream) Append(text string) {
	m.hub.Publish("message_append", map[string]string{"id": m.id, "text": text})
}

func (m *messageStream) Close() {
	m.hub.Publish("message_end", map[string]string{"id": m.id})
}

func (h *Hub) AppendMessage(role assistant.Role, text string) {
	h.Publish("message", map[string]any{"role": role, "text": text})
}

func (h *Hub) BeginMessage(role assistant.Role) assistant.MessageStream {
	id := uuid.NewString()
	h.Publish("message_begin", map[string]any{"id": id, "role": role})
	return &messageStream{hub: h, id: id}
}

func (h *Hub) SetStatus(status string) {
	h.Publish("status", map[string]string{"status": status})
}

func (h *Hub) SetBusy(busy bool) {
	h.Publish("busy", map[string]bool{"busy": busy})
}

func (h *Hub) SetInput(text string) {
	h.Publish("input", map[string]string{"text": text})
}

func (h *Hub) SetSummary(summary, title, url string) {
	h.Publish("summary", map[string]string{"summary": summary, "title": title, "url": url})
}

func (h *Hub) SetRelated(titles []string) {
	h.Publish("related", map[string][]string{"titles": nonNil(titles)})
}

func (h *Hub) SetHistory(titles []string) {
	h.Publish("history", map[string][]string{"titles": nonNil(titles)})
}

func (h *Hub) SetMetrics(m models.Metrics) {
	h.Publish("metrics", m)
}

func (h *Hub) SetVoice(v assistant.VoiceState) {
	h.Publish("voice", v)
}

func (h *Hub) SetDictation(d assistant.DictationState) {
	h.Publish("dictation", d)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
