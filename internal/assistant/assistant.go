// Package assistant implements the chat core: a single-flight query
// orchestrator and the narration and dictation controllers that share its state.
package assistant

import (
	"context"
	"time"
)

type Options struct {
	StatusDelay       time.Duration // pause on ANALYZING... before rendering
	CharDelay         time.Duration // per-character reveal delay
	SubmitDelay       time.Duration // final transcript to auto-submit
	ErrorStatusDelay  time.Duration // dictation error message lifetime
	FeedbackDelay     time.Duration // voice toggle feedback lifetime
	KeepAliveInterval time.Duration // narration pause/resume cycle

	VoiceEnabled    bool
	Rate            float64
	Pitch           float64
	PreferredVoices []string

	Journal Journal
}

func DefaultOptions() Options {
	return Options{
		StatusDelay:       500 * time.Millisecond,
		CharDelay:         15 * time.Millisecond,
		SubmitDelay:       300 * time.Millisecond,
		ErrorStatusDelay:  2 * time.Second,
		FeedbackDelay:     1500 * time.Millisecond,
		KeepAliveInterval: 10 * time.Second,
		VoiceEnabled:      true,
		Rate:              1.0,
		Pitch:             1.0,
	}
}

// Assistant owns the widget state and wires the three controllers to it.
type Assistant struct {
	Orchestrator *Orchestrator
	Narrator     *Narrator
	Dictation    *Dictation

	state *State
	sink  Sink
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds an assistant. synth and rec may be nil when the platform has no
// speech output or input; the corresponding feature is then unavailable.
func New(provider Provider, synth Synthesizer, rec Recognizer, sink Sink, opts Options) *Assistant {
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Assistant{
		state: &State{
			status:       StatusIdle,
			history:      NewHistory(HistorySize),
			voiceEnabled: opts.VoiceEnabled && synth != nil,
			rate:         clampVoiceParam(opts.Rate),
			pitch:        clampVoiceParam(opts.Pitch),
		},
		sink:   sink,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	a.Orchestrator = &Orchestrator{a: a, provider: provider, journal: opts.Journal}
	a.Narrator = &Narrator{a: a, synth: synth, preferred: opts.PreferredVoices}
	a.Dictation = &Dictation{a: a, rec: rec}

	if synth != nil {
		a.Narrator.ReloadVoices()
	}
	a.publishVoice()
	a.publishDictation()
	sink.SetStatus(StatusIdle)
	return a
}

// Close stops narration and dictation and cancels every pending timer.
func (a *Assistant) Close() {
	a.Dictation.Stop()
	a.Narrator.Stop()
	a.cancel()
}

// Context is cancelled when the assistant is closed.
func (a *Assistant) Context() context.Context {
	return a.ctx
}

// SetInput records text typed into the input field without submitting it.
func (a *Assistant) SetInput(text string) {
	a.state.mu.Lock()
	a.state.input = text
	a.state.mu.Unlock()
}

func (a *Assistant) Snapshot() Snapshot {
	s := a.state
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:    s.status,
		Busy:      s.busy,
		Input:     s.input,
		History:   s.history.Titles(),
		Metrics:   s.metrics,
		Voice:     a.voiceStateLocked(),
		Dictation: DictationState{Available: a.Dictation.Available(), Listening: s.listening},
	}
}

func (a *Assistant) setStatus(status string) {
	a.state.mu.Lock()
	a.state.status = status
	a.state.mu.Unlock()
	a.sink.SetStatus(status)
}

// restoreIdle resets the status unless a query, narration or dictation is active.
func (a *Assistant) restoreIdle() {
	s := a.state
	s.mu.Lock()
	if s.busy || s.speaking || s.listening {
		s.mu.Unlock()
		return
	}
	s.status = StatusIdle
	s.mu.Unlock()
	a.sink.SetStatus(StatusIdle)
}

// revertStatus restores idle after d if status is still showing.
func (a *Assistant) revertStatus(status string, d time.Duration) {
	a.after(d, func() {
		a.state.mu.Lock()
		current := a.state.status
		a.state.mu.Unlock()
		if current == status {
			a.restoreIdle()
		}
	})
}

func (a *Assistant) voiceStateLocked() VoiceState {
	s := a.state
	v := VoiceState{
		Available: a.Narrator.Available(),
		Enabled:   s.voiceEnabled,
		Speaking:  s.speaking,
		Rate:      s.rate,
		Pitch:     s.pitch,
	}
	if s.voice != nil {
		v.Voice = s.voice.Name
	}
	return v
}

func (a *Assistant) publishVoice() {
	a.state.mu.Lock()
	v := a.voiceStateLocked()
	a.state.mu.Unlock()
	a.sink.SetVoice(v)
}

func (a *Assistant) publishDictation() {
	a.state.mu.Lock()
	d := DictationState{Available: a.Dictation.Available(), Listening: a.state.listening}
	a.state.mu.Unlock()
	a.sink.SetDictation(d)
}

// after runs fn once d has elapsed, unless the assistant is closed first.
func (a *Assistant) after(d time.Duration, fn func()) {
	go func() {
		if sleep(a.ctx, d) == nil {
			fn()
		}
	}()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// every calls fn on each tick until fn reports false or ctx ends.
func every(ctx context.Context, interval time.Duration, fn func() bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn() {
				return
			}
		}
	}
}
