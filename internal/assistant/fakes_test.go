package assistant

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thinkscotty/wikichat/internal/models"
)

type message struct {
	Role Role
	Text string
}

type recordingSink struct {
	mu        sync.Mutex
	messages  []message
	statuses  []string
	busy      bool
	input     string
	summary   string
	title     string
	url       string
	related   []string
	history   []string
	metrics   models.Metrics
	metricSet int
	voice     VoiceState
	dictation DictationState
}

type recordingStream struct {
	sink *recordingSink
	idx  int
}

func (r *recordingStream) Append(text string) {
	r.sink.mu.Lock()
	r.sink.messages[r.idx].Text += text
	r.sink.mu.Unlock()
}

func (r *recordingStream) Close() {}

func (r *recordingSink) AppendMessage(role Role, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message{Role: role, Text: text})
}

func (r *recordingSink) BeginMessage(role Role) MessageStream {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message{Role: role})
	return &recordingStream{sink: r, idx: len(r.messages) - 1}
}

func (r *recordingSink) SetStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingSink) SetBusy(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = busy
}

func (r *recordingSink) SetInput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = text
}

func (r *recordingSink) SetSummary(summary, title, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary, r.title, r.url = summary, title, url
}

func (r *recordingSink) SetRelated(titles []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.related = titles
}

func (r *recordingSink) SetHistory(titles []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = titles
}

func (r *recordingSink) SetMetrics(m models.Metrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = m
	r.metricSet++
}

func (r *recordingSink) SetVoice(v VoiceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voice = v
}

func (r *recordingSink) SetDictation(d DictationState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dictation = d
}

func (r *recordingSink) Messages() []message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *recordingSink) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *recordingSink) Input() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input
}

type fakeProvider struct {
	mu      sync.Mutex
	lookup  func(query string) (models.Article, error)
	queries []string
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeProvider) Lookup(ctx context.Context, query string) (models.Article, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return models.Article{}, ctx.Err()
		}
	}
	return f.lookup(query)
}

func (f *fakeProvider) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func articleFor(query string) (models.Article, error) {
	return models.Article{
		Title:   query,
		Extract: "This is the first sentence about the topic. This is the second sentence about the topic. This is the third sentence about the topic.",
		URL:     "https://en.wikipedia.org/wiki/" + query,
		Related: []string{"One", "Two"},
	}, nil
}

// fakeSynth starts utterances synchronously inside Speak.
type fakeSynth struct {
	mu       sync.Mutex
	voices   []models.Voice
	spoken   []Utterance
	events   []SpeechEvents
	speaking bool
	cancels  int
	pauses   int
	resumes  int
	noStart  bool
}

func (f *fakeSynth) Voices() []models.Voice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Voice(nil), f.voices...)
}

func (f *fakeSynth) Speak(u Utterance, ev SpeechEvents) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	f.events = append(f.events, ev)
	f.speaking = !f.noStart
	start := !f.noStart
	f.mu.Unlock()
	if start {
		ev.OnStart()
	}
	return nil
}

func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	f.speaking = false
}

func (f *fakeSynth) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
}

func (f *fakeSynth) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
}

func (f *fakeSynth) Speaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speaking
}

// finish ends the most recent utterance normally.
func (f *fakeSynth) finish() {
	f.mu.Lock()
	f.speaking = false
	ev := f.events[len(f.events)-1]
	f.mu.Unlock()
	ev.OnEnd()
}

func (f *fakeSynth) Spoken() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.spoken...)
}

func (f *fakeSynth) Pauses() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses
}

type fakeRecognizer struct {
	mu       sync.Mutex
	events   RecognitionEvents
	starts   int
	stops    int
	startErr error
}

func (f *fakeRecognizer) Start(ev RecognitionEvents) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.events = ev
	return f.startErr
}

func (f *fakeRecognizer) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeRecognizer) Events() RecognitionEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events
}

func testOptions() Options {
	return Options{
		KeepAliveInterval: time.Hour,
		ErrorStatusDelay:  time.Hour,
		FeedbackDelay:     time.Hour,
		VoiceEnabled:      true,
		Rate:              1,
		Pitch:             1,
	}
}

// newTestAssistant wires fakes with zero pacing delays. Pass nil for synth or
// rec to simulate a platform without that capability.
func newTestAssistant(t *testing.T, p Provider, synth Synthesizer, rec Recognizer, opts Options) (*Assistant, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	a := New(p, synth, rec, sink, opts)
	t.Cleanup(a.Close)
	return a, sink
}
