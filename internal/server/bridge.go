package server

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

var errNoClient = errors.New("no browser connected")

// Speech platform event names posted back by the page.
const (
	EventStart  = "start"
	EventEnd    = "end"
	EventError  = "error"
	EventPause  = "pause"
	EventResume = "resume"
	EventResult = "result"
)

// Bridge exposes the browser's speech synthesis and recognition as the
// assistant's Synthesizer and Recognizer. Commands go out as hub events;
// the page posts lifecycle events back tagged with the command id, and
// events for anything but the current id are ignored.
type Bridge struct {
	hub *Hub

	mu        sync.Mutex
	voices    []models.Voice
	onVoices  func()
	speechID  string
	speech    assistant.SpeechEvents
	speaking  bool
	listenID  string
	listening assistant.RecognitionEvents
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

// OnVoicesChanged registers fn to run after the page reports a new voice list.
func (b *Bridge) OnVoicesChanged(fn func()) {
	b.mu.Lock()
	b.onVoices = fn
	b.mu.Unlock()
}

// SetVoices replaces the voice list with what the browser reported.
func (b *Bridge) SetVoices(voices []models.Voice) {
	b.mu.Lock()
	b.voices = append([]models.Voice(nil), voices...)
	fn := b.onVoices
	b.mu.Unlock()

	slog.Debug("Browser voices updated", "count", len(voices))
	if fn != nil {
		fn()
	}
}

func (b *Bridge) Voices() []models.Voice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Voice(nil), b.voices...)
}

func (b *Bridge) Speak(u assistant.Utterance, ev assistant.SpeechEvents) error {
	if b.hub.Clients() == 0 {
		return errNoClient
	}
	id := uuid.NewString()

	b.mu.Lock()
	b.speechID = id
	b.speech = ev
	b.speaking = false
	b.mu.Unlock()

	b.hub.Publish("speak", map[string]any{"id": id, "utterance": u})
	return nil
}

func (b *Bridge) Cancel() {
	b.mu.Lock()
	active := b.speechID != ""
	b.speechID = ""
	b.speaking = false
	b.mu.Unlock()

	if active {
		b.hub.Publish("speech_cancel", nil)
	}
}

func (b *Bridge) Pause() {
	b.hub.Publish("speech_pause", nil)
}

func (b *Bridge) Resume() {
	b.hub.Publish("speech_resume", nil)
}

// Speaking reports whether the browser has confirmed playback of the current
// utterance. It stays true while playback is paused, like speechSynthesis.speaking.
func (b *Bridge) Speaking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speaking
}

// SpeechEvent applies a lifecycle event reported by the page.
func (b *Bridge) SpeechEvent(id, event, message string) error {
	b.mu.Lock()
	if id == "" || id != b.speechID {
		b.mu.Unlock()
		slog.Debug("Ignoring stale speech event", "id", id, "event", event)
		return nil
	}
	ev := b.speech
	switch event {
	case EventStart:
		b.speaking = true
	case EventPause, EventResume:
	case EventEnd, EventError:
		b.speechID = ""
		b.speaking = false
	default:
		b.mu.Unlock()
		return fmt.Errorf("unknown speech event %q", event)
	}
	b.mu.Unlock()

	switch event {
	case EventStart:
		ev.OnStart()
	case EventPause:
		ev.OnPause()
	case EventEnd:
		ev.OnEnd()
	case EventError:
		if message == "" {
			message = "speech synthesis failed"
		}
		ev.OnError(errors.New(message))
	}
	return nil
}

func (b *Bridge) Start(ev assistant.RecognitionEvents) error {
	if b.hub.Clients() == 0 {
		return errNoClient
	}
	id := uuid.NewString()

	b.mu.Lock()
	b.listenID = id
	b.listening = ev
	b.mu.Unlock()

	b.hub.Publish("dictation_start", map[string]string{"id": id})
	return nil
}

func (b *Bridge) Stop() {
	b.mu.Lock()
	active := b.listenID != ""
	b.listenID = ""
	b.mu.Unlock()

	if active {
		b.hub.Publish("dictation_stop", nil)
	}
}

// DictationEvent applies a recognition event reported by the page. code
// carries the recognizer error code for error events.
func (b *Bridge) DictationEvent(id, event, transcript string, final bool, code string) error {
	b.mu.Lock()
	if id == "" || id != b.listenID {
		b.mu.Unlock()
		slog.Debug("Ignoring stale dictation event", "id", id, "event", event)
		return nil
	}
	ev := b.listening
	switch event {
	case EventResult:
	case EventError, EventEnd:
		b.listenID = ""
	default:
		b.mu.Unlock()
		return fmt.Errorf("unknown dictation event %q", event)
	}
	b.mu.Unlock()

	switch event {
	case EventResult:
		ev.OnResult(transcript, final)
	case EventError:
		ev.OnError(code)
	case EventEnd:
		ev.OnEnd()
	}
	return nil
}
