package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

const adaExtract = "Ada Lovelace was an English mathematician and writer. " +
	"She is chiefly known for her work on the Analytical Engine. " +
	"She was the first to recognise that the machine had applications beyond pure calculation."

type stubProvider struct {
	mu      sync.Mutex
	queries []string
	block   chan struct{}
}

func (p *stubProvider) Lookup(ctx context.Context, query string) (models.Article, error) {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	if query == "missing" {
		return models.Article{}, models.ErrNotFound
	}
	return models.Article{
		Title:   "Ada Lovelace",
		Extract: adaExtract,
		URL:     "https://en.wikipedia.org/wiki/Ada_Lovelace",
		Related: []string{"Analytical Engine", "Charles Babbage"},
	}, nil
}

// silentSynth accepts utterances but never reports playback.
type silentSynth struct{}

func (silentSynth) Voices() []models.Voice {
	return []models.Voice{{Name: "Test Voice", Lang: "en-US"}}
}
func (silentSynth) Speak(assistant.Utterance, assistant.SpeechEvents) error { return nil }
func (silentSynth) Cancel()                                                {}
func (silentSynth) Pause()                                                 {}
func (silentSynth) Resume()                                                {}
func (silentSynth) Speaking() bool                                         { return false }

func newTestAssistant(t *testing.T, p assistant.Provider, synth assistant.Synthesizer, sink assistant.Sink) *assistant.Assistant {
	t.Helper()
	opts := assistant.DefaultOptions()
	opts.StatusDelay = 0
	opts.CharDelay = 0
	opts.SubmitDelay = 0
	a := assistant.New(p, synth, nil, sink, opts)
	t.Cleanup(a.Close)
	return a
}

func waitIdle(t *testing.T, a *assistant.Assistant) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for a.Snapshot().Busy {
		if time.Now().After(deadline) {
			t.Fatal("query did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line   string
		want   command
		wantOK bool
	}{
		{"/voice", command{name: "voice"}, true},
		{"  /RATE 1.5 ", command{name: "rate", arg: "1.5"}, true},
		{"/related   2", command{name: "related", arg: "2"}, true},
		{"Ada Lovelace", command{}, false},
		{"what is /voice", command{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.line)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseCommand(%q) = %+v, %v; want %+v, %v", tt.line, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"abcd", 3, "abc"},
		{"test", 0, ""},
		{"日本語テスト", 5, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestSinkForwardsAfterAttach(t *testing.T) {
	s := NewSink()
	s.SetStatus(assistant.StatusSearching)

	var got []tea.Msg
	s.Attach(func(m tea.Msg) { got = append(got, m) })

	s.SetStatus(assistant.StatusAnalyzing)
	st := s.BeginMessage(assistant.RoleBot)
	st.Append("Hi")
	st.Close()
	s.SetRelated([]string{"A"})

	want := []tea.Msg{
		statusMsg(assistant.StatusAnalyzing),
		beginMsg{id: 1, role: assistant.RoleBot},
		appendMsg{id: 1, text: "Hi"},
	}
	if len(got) != 4 {
		t.Fatalf("got %d messages, want 4: %#v", len(got), got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("message %d = %#v, want %#v", i, got[i], w)
		}
	}
	if r, ok := got[3].(relatedMsg); !ok || len(r) != 1 || r[0] != "A" {
		t.Errorf("message 3 = %#v, want relatedMsg{A}", got[3])
	}

	s.Attach(nil)
	s.SetBusy(true)
	if len(got) != 4 {
		t.Errorf("detached sink still forwarded: %#v", got[4:])
	}
}

func TestAppAppliesSinkMessages(t *testing.T) {
	a := newTestAssistant(t, &stubProvider{}, nil, NewSink())
	app := NewApp(Options{Assistant: a, Sink: NewSink()})

	if app.status != assistant.StatusIdle {
		t.Errorf("initial status = %q, want %q", app.status, assistant.StatusIdle)
	}

	msgs := []tea.Msg{
		tea.WindowSizeMsg{Width: 100, Height: 30},
		messageMsg{role: assistant.RoleUser, text: "Ada"},
		beginMsg{id: 7, role: assistant.RoleBot},
		appendMsg{id: 7, text: "Ada was "},
		appendMsg{id: 7, text: "a writer."},
		appendMsg{id: 99, text: "ignored"},
		statusMsg(assistant.StatusSpeaking),
		busyMsg(true),
		summaryMsg{summary: "Ada was a writer.", title: "Ada Lovelace", url: "https://en.wikipedia.org/wiki/Ada_Lovelace"},
		relatedMsg{"Analytical Engine"},
		historyMsg{"Ada Lovelace"},
		metricsMsg{Queries: 1, Words: 4, LatencyMs: 12},
		inputMsg("draft"),
	}
	for _, m := range msgs {
		app.Update(m)
	}

	if len(app.lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(app.lines))
	}
	if app.lines[1].text != "Ada was a writer." {
		t.Errorf("streamed text = %q", app.lines[1].text)
	}
	if app.status != assistant.StatusSpeaking || !app.busy {
		t.Errorf("status = %q busy = %v", app.status, app.busy)
	}
	if app.input.Value() != "draft" {
		t.Errorf("input = %q, want draft", app.input.Value())
	}

	view := app.View()
	for _, want := range []string{"wikichat", "Ada Lovelace", "Analytical Engine", "1 queries", assistant.StatusSpeaking} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestAppSubmitRunsQuery(t *testing.T) {
	p := &stubProvider{}
	a := newTestAssistant(t, p, nil, NewSink())
	app := NewApp(Options{Assistant: a, Sink: NewSink()})

	app.input.SetValue("Ada")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	if msg := cmd(); msg != nil {
		t.Fatalf("submit returned %#v", msg)
	}
	waitIdle(t, a)

	snap := a.Snapshot()
	if len(snap.History) != 1 || snap.History[0] != "Ada Lovelace" {
		t.Errorf("history = %v", snap.History)
	}
	if snap.Metrics.Queries != 1 {
		t.Errorf("queries = %d, want 1", snap.Metrics.Queries)
	}
}

func TestAppSubmitWhileBusy(t *testing.T) {
	p := &stubProvider{block: make(chan struct{})}
	a := newTestAssistant(t, p, nil, NewSink())
	app := NewApp(Options{Assistant: a, Sink: NewSink()})

	if msg := app.submitCmd("Ada")(); msg != nil {
		t.Fatalf("first submit returned %#v", msg)
	}
	if msg := app.submitCmd("Babbage")(); msg != noticeMsg(busyNotice) {
		t.Errorf("second submit returned %#v, want busy notice", msg)
	}

	close(p.block)
	waitIdle(t, a)
}

func runLine(t *testing.T, app *App, line string) tea.Msg {
	t.Helper()
	c, ok := parseCommand(line)
	if !ok {
		t.Fatalf("%q is not a command", line)
	}
	return app.runCommand(c)()
}

func TestRunCommand(t *testing.T) {
	var saved []models.VoicePrefs
	a := newTestAssistant(t, &stubProvider{}, silentSynth{}, NewSink())
	app := NewApp(Options{
		Assistant: a,
		Sink:      NewSink(),
		Stats: func() (models.Stats, error) {
			return models.Stats{TotalQueries: 3, FoundQueries: 2, NotFoundQueries: 1}, nil
		},
		SavePrefs: func(p models.VoicePrefs) error {
			saved = append(saved, p)
			return nil
		},
	})
	app.related = []string{"Analytical Engine"}
	run := func(line string) tea.Msg { return runLine(t, app, line) }

	if msg := run("/rate 1.5"); msg != noticeMsg("Voice rate set to 1.5.") {
		t.Errorf("/rate returned %#v", msg)
	}
	if msg := run("/pitch 9"); msg != noticeMsg("Voice pitch set to 2.0.") {
		t.Errorf("/pitch returned %#v", msg)
	}
	if msg := run("/voice"); msg != nil {
		t.Errorf("/voice returned %#v", msg)
	}
	want := []models.VoicePrefs{
		{Enabled: true, Rate: 1.5, Pitch: 1},
		{Enabled: true, Rate: 1.5, Pitch: 2},
		{Enabled: false, Rate: 1.5, Pitch: 2},
	}
	if len(saved) != len(want) {
		t.Fatalf("saved %d prefs, want %d: %+v", len(saved), len(want), saved)
	}
	for i := range want {
		if saved[i] != want[i] {
			t.Errorf("saved[%d] = %+v, want %+v", i, saved[i], want[i])
		}
	}

	if msg := run("/rate fast"); msg != noticeMsg("Usage: /rate N") {
		t.Errorf("/rate fast returned %#v", msg)
	}
	if msg := run("/related 3"); msg != noticeMsg("Pick a related topic between 1 and 1.") {
		t.Errorf("/related 3 returned %#v", msg)
	}
	if msg := run("/history 1"); msg != noticeMsg("No recent topic to pick from.") {
		t.Errorf("/history 1 returned %#v", msg)
	}
	if msg := run("/open"); msg != noticeMsg("No article to open yet.") {
		t.Errorf("/open returned %#v", msg)
	}
	if msg, ok := run("/stats").(noticeMsg); !ok || !strings.Contains(string(msg), "All time: 3 queries") {
		t.Errorf("/stats returned %#v", msg)
	}
	if msg, ok := run("/frobnicate").(noticeMsg); !ok || !strings.Contains(string(msg), "Unknown command /frobnicate") {
		t.Errorf("/frobnicate returned %#v", msg)
	}
	if _, ok := run("/quit").(tea.QuitMsg); !ok {
		t.Error("/quit did not quit")
	}

	if msg := run("/related 1"); msg != nil {
		t.Errorf("/related 1 returned %#v", msg)
	}
	waitIdle(t, a)
	if h := a.Snapshot().History; len(h) != 1 {
		t.Errorf("history after /related = %v", h)
	}
}

func TestVoiceCommandsWithoutPlatform(t *testing.T) {
	var saved []models.VoicePrefs
	a := newTestAssistant(t, &stubProvider{}, nil, NewSink())
	app := NewApp(Options{
		Assistant: a,
		Sink:      NewSink(),
		SavePrefs: func(p models.VoicePrefs) error {
			saved = append(saved, p)
			return nil
		},
	})

	if msg := runLine(t, app, "/voice"); msg != noticeMsg("Voice output is not available on this system.") {
		t.Errorf("/voice returned %#v", msg)
	}
	if msg := runLine(t, app, "/mic"); msg != noticeMsg("Voice input is not available on this system.") {
		t.Errorf("/mic returned %#v", msg)
	}
	if msg := runLine(t, app, "/rate 1.2"); msg != noticeMsg("Voice rate set to 1.2.") {
		t.Errorf("/rate returned %#v", msg)
	}
	if len(saved) != 0 {
		t.Errorf("prefs saved without a synthesizer: %+v", saved)
	}
}

func TestSavePrefsError(t *testing.T) {
	a := newTestAssistant(t, &stubProvider{}, silentSynth{}, NewSink())
	app := NewApp(Options{
		Assistant: a,
		Sink:      NewSink(),
		SavePrefs: func(models.VoicePrefs) error { return errors.New("disk full") },
	})

	msg, ok := app.voiceParamCmd("pitch", 1.2)().(errMsg)
	if !ok {
		t.Fatalf("expected errMsg, got %#v", msg)
	}
	app.Update(msg)
	if app.err == nil || !strings.Contains(app.err.Error(), "disk full") {
		t.Errorf("err = %v", app.err)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	a := newTestAssistant(t, &stubProvider{}, nil, p)

	if !a.Orchestrator.Submit(context.Background(), "Ada") {
		t.Fatal("submit rejected")
	}
	if !a.Orchestrator.Submit(context.Background(), "missing") {
		t.Fatal("second submit rejected")
	}

	out := buf.String()
	for _, want := range []string{
		"you Ada\n",
		"wiki Ada Lovelace was an English mathematician and writer.",
		"source Ada Lovelace https://en.wikipedia.org/wiki/Ada_Lovelace\n",
		"related Analytical Engine · Charles Babbage\n",
		`Unable to find information about "missing".`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
