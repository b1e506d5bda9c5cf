package assistant

import (
	"log/slog"
)

// Status messages shown for recognizer error codes.
const (
	StatusMicDenied    = "MICROPHONE ACCESS DENIED"
	StatusNoSpeech     = "NO SPEECH DETECTED"
	StatusNetworkError = "NETWORK ERROR"
	StatusVoiceError   = "VOICE INPUT ERROR"
)

// Dictation drives the speech-to-text facility. Listening and narration
// speaking are mutually exclusive.
type Dictation struct {
	a   *Assistant
	rec Recognizer
}

// Available reports whether the platform offers dictation. Surfaces hide the
// control entirely when it does not.
func (d *Dictation) Available() bool {
	return d.rec != nil
}

func (d *Dictation) Listening() bool {
	d.a.state.mu.Lock()
	defer d.a.state.mu.Unlock()
	return d.a.state.listening
}

// Toggle starts capture, stopping any narration first, or stops an active
// capture.
func (d *Dictation) Toggle() {
	if d.rec == nil {
		return
	}
	if d.Listening() {
		d.Stop()
		return
	}
	d.start()
}

// Stop ends capture. It is safe to call when not listening.
func (d *Dictation) Stop() {
	s := d.a.state
	s.mu.Lock()
	if !s.listening {
		s.mu.Unlock()
		return
	}
	s.listening = false
	s.session++
	s.mu.Unlock()

	d.rec.Stop()
	d.a.publishDictation()
	d.a.restoreIdle()
}

func (d *Dictation) start() {
	d.a.Narrator.Stop()

	s := d.a.state
	s.mu.Lock()
	s.session++
	gen := s.session
	s.listening = true
	s.input = ""
	s.mu.Unlock()

	d.a.sink.SetInput("")
	d.a.publishDictation()
	d.a.setStatus(StatusListening)

	if err := d.rec.Start(d.events(gen)); err != nil {
		slog.Error("Failed to start dictation", "error", err)
		d.failed(gen, "start-failed")
	}
}

func (d *Dictation) events(gen uint64) RecognitionEvents {
	return RecognitionEvents{
		OnResult: func(transcript string, final bool) { d.result(gen, transcript, final) },
		OnError:  func(code string) { d.failed(gen, code) },
		OnEnd:    func() { d.ended(gen) },
	}
}

// result mirrors interim transcripts into the input; a final transcript ends
// the session and is submitted after SubmitDelay.
func (d *Dictation) result(gen uint64, transcript string, final bool) {
	s := d.a.state
	s.mu.Lock()
	if gen != s.session || !s.listening {
		s.mu.Unlock()
		return
	}
	s.input = transcript
	if final {
		s.listening = false
		s.session++
	}
	s.mu.Unlock()

	d.a.sink.SetInput(transcript)
	if !final {
		return
	}

	slog.Debug("Final transcript", "text", transcript)
	d.rec.Stop()
	d.a.publishDictation()
	d.a.restoreIdle()
	d.a.after(d.a.opts.SubmitDelay, func() {
		d.a.Orchestrator.SubmitPending(d.a.ctx)
	})
}

func (d *Dictation) failed(gen uint64, code string) {
	s := d.a.state
	s.mu.Lock()
	if gen != s.session {
		s.mu.Unlock()
		return
	}
	s.listening = false
	s.session++
	s.mu.Unlock()

	slog.Warn("Dictation error", "code", code)
	d.a.publishDictation()

	status := DictationErrorStatus(code)
	d.a.setStatus(status)
	d.a.revertStatus(status, d.a.opts.ErrorStatusDelay)
}

func (d *Dictation) ended(gen uint64) {
	s := d.a.state
	s.mu.Lock()
	if gen != s.session || !s.listening {
		s.mu.Unlock()
		return
	}
	s.listening = false
	s.session++
	s.mu.Unlock()

	d.a.publishDictation()
	d.a.restoreIdle()
}

// DictationErrorStatus maps a recognizer error code to a status message.
func DictationErrorStatus(code string) string {
	switch code {
	case "not-allowed", "service-not-allowed":
		return StatusMicDenied
	case "no-speech":
		return StatusNoSpeech
	case "network":
		return StatusNetworkError
	default:
		return StatusVoiceError
	}
}
