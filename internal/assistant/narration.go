package assistant

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/thinkscotty/wikichat/internal/models"
)

const (
	MinVoiceParam = 0.5
	MaxVoiceParam = 2.0
)

var (
	reReference  = regexp.MustCompile(`\[.*?\]`)
	reURL        = regexp.MustCompile(`https?://\S+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Narrator drives the text-to-speech facility. At most one utterance is
// active; callbacks from superseded utterances are dropped by generation.
type Narrator struct {
	a         *Assistant
	synth     Synthesizer
	preferred []string
}

// Available reports whether the platform can speak at all.
func (n *Narrator) Available() bool {
	return n.synth != nil
}

func (n *Narrator) Enabled() bool {
	n.a.state.mu.Lock()
	defer n.a.state.mu.Unlock()
	return n.a.state.voiceEnabled
}

func (n *Narrator) Speaking() bool {
	n.a.state.mu.Lock()
	defer n.a.state.mu.Unlock()
	return n.a.state.speaking
}

// Speak cancels any active utterance and narrates text. Reference markers and
// URLs are stripped first; nothing is spoken when narration is disabled or
// the cleaned text is empty. Active dictation is stopped.
func (n *Narrator) Speak(text string) {
	if n.synth == nil {
		return
	}

	wasSpeaking := n.cancelActive()
	n.synth.Cancel()
	if wasSpeaking {
		n.a.publishVoice()
	}

	clean := cleanSpeechText(text)
	if clean == "" || !n.Enabled() {
		slog.Debug("Speech skipped", "empty", clean == "", "enabled", n.Enabled())
		return
	}

	n.a.Dictation.Stop()

	s := n.a.state
	s.mu.Lock()
	needVoice := s.voice == nil
	s.mu.Unlock()
	if needVoice {
		n.ReloadVoices()
	}

	s.mu.Lock()
	s.utterance++
	gen := s.utterance
	u := Utterance{Text: clean, Voice: s.voice, Rate: s.rate, Pitch: s.pitch, Volume: 1.0}
	s.mu.Unlock()

	slog.Debug("Starting speech synthesis", "chars", len(clean))
	if err := n.synth.Speak(u, n.events(gen)); err != nil {
		n.ended(gen, err)
	}
}

// Stop cancels narration unconditionally and resets the status. It is safe to
// call when nothing is being spoken.
func (n *Narrator) Stop() {
	n.cancelActive()
	if n.synth != nil {
		n.synth.Cancel()
	}
	n.a.publishVoice()
	n.a.setStatus(StatusIdle)
}

// Toggle flips narration on or off, force-stopping active speech when
// turning it off. It returns the new enabled state.
func (n *Narrator) Toggle() bool {
	s := n.a.state
	s.mu.Lock()
	s.voiceEnabled = !s.voiceEnabled && n.synth != nil
	enabled := s.voiceEnabled
	speaking := s.speaking
	s.mu.Unlock()

	if !enabled && speaking {
		n.Stop()
	}
	n.a.publishVoice()

	status := StatusVoiceOff
	if enabled {
		status = StatusVoiceOn
	}
	n.a.setStatus(status)
	n.a.revertStatus(status, n.a.opts.FeedbackDelay)
	return enabled
}

// SetEnabled applies a stored preference without user feedback.
func (n *Narrator) SetEnabled(enabled bool) {
	s := n.a.state
	s.mu.Lock()
	s.voiceEnabled = enabled && n.synth != nil
	stop := !s.voiceEnabled && s.speaking
	s.mu.Unlock()
	if stop {
		n.Stop()
	}
	n.a.publishVoice()
}

// SetRate clamps and stores the speaking rate for future utterances.
func (n *Narrator) SetRate(rate float64) float64 {
	s := n.a.state
	s.mu.Lock()
	s.rate = clampVoiceParam(rate)
	rate = s.rate
	s.mu.Unlock()
	n.a.publishVoice()
	return rate
}

// SetPitch clamps and stores the pitch for future utterances.
func (n *Narrator) SetPitch(pitch float64) float64 {
	s := n.a.state
	s.mu.Lock()
	s.pitch = clampVoiceParam(pitch)
	pitch = s.pitch
	s.mu.Unlock()
	n.a.publishVoice()
	return pitch
}

// ReloadVoices re-runs voice selection. Call it whenever the platform's
// voice list changes.
func (n *Narrator) ReloadVoices() {
	if n.synth == nil {
		return
	}
	voices := n.synth.Voices()
	if len(voices) == 0 {
		slog.Debug("No voices available yet")
		return
	}

	v := SelectVoice(voices, n.preferred)
	n.a.state.mu.Lock()
	n.a.state.voice = &v
	n.a.state.mu.Unlock()

	slog.Info("Selected voice", "name", v.Name, "lang", v.Lang, "available", len(voices))
	n.a.publishVoice()
}

// SelectVoice picks the first voice whose name contains an entry of the
// ranked preference list, else the first English voice, else the first voice.
func SelectVoice(voices []models.Voice, preferred []string) models.Voice {
	for _, want := range preferred {
		for _, v := range voices {
			if strings.Contains(v.Name, want) {
				return v
			}
		}
	}
	for _, v := range voices {
		if strings.HasPrefix(v.Lang, "en") {
			return v
		}
	}
	return voices[0]
}

func (n *Narrator) events(gen uint64) SpeechEvents {
	return SpeechEvents{
		OnStart: func() { n.started(gen) },
		OnEnd:   func() { n.ended(gen, nil) },
		OnError: func(err error) {
			if err == nil {
				err = errors.New("unknown synthesis error")
			}
			n.ended(gen, err)
		},
		OnPause: func() { n.paused(gen) },
	}
}

func (n *Narrator) started(gen uint64) {
	s := n.a.state
	s.mu.Lock()
	if gen != s.utterance {
		s.mu.Unlock()
		return
	}
	s.speaking = true
	s.stopKeepAliveLocked()
	ctx, cancel := context.WithCancel(n.a.ctx)
	s.keepAlive = cancel
	s.mu.Unlock()

	go every(ctx, n.a.opts.KeepAliveInterval, func() bool { return n.keepAlive(gen) })

	slog.Debug("Speech started")
	n.a.publishVoice()
	n.a.setStatus(StatusSpeaking)
}

func (n *Narrator) ended(gen uint64, err error) {
	s := n.a.state
	s.mu.Lock()
	if gen != s.utterance {
		s.mu.Unlock()
		return
	}
	s.speaking = false
	s.stopKeepAliveLocked()
	s.mu.Unlock()

	if err != nil {
		slog.Warn("Speech synthesis error", "error", err)
	} else {
		slog.Debug("Speech ended")
	}
	n.a.publishVoice()
	n.a.restoreIdle()
}

// paused resumes immediately: some engines pause long utterances on their own.
func (n *Narrator) paused(gen uint64) {
	s := n.a.state
	s.mu.Lock()
	active := s.speaking && gen == s.utterance
	s.mu.Unlock()
	if active {
		n.synth.Resume()
	}
}

// keepAlive cycles pause/resume so the engine does not silently drop a long
// utterance. It reports false once the utterance is no longer active.
func (n *Narrator) keepAlive(gen uint64) bool {
	s := n.a.state
	s.mu.Lock()
	active := s.speaking && gen == s.utterance
	s.mu.Unlock()
	if !active || !n.synth.Speaking() {
		return false
	}
	n.synth.Pause()
	n.synth.Resume()
	return true
}

// cancelActive invalidates the current utterance and reports whether it was
// speaking.
func (n *Narrator) cancelActive() bool {
	s := n.a.state
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.speaking
	s.utterance++
	s.speaking = false
	s.stopKeepAliveLocked()
	return was
}

func cleanSpeechText(text string) string {
	text = reReference.ReplaceAllString(text, "")
	text = reURL.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func clampVoiceParam(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	if v < MinVoiceParam {
		return MinVoiceParam
	}
	if v > MaxVoiceParam {
		return MaxVoiceParam
	}
	return v
}
