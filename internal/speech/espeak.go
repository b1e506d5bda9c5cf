// Package speech provides a local text-to-speech engine for terminal mode,
// backed by an espeak-ng process per utterance.
package speech

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

const (
	baseWordsPerMinute = 175
	basePitch          = 50
	maxPitch           = 99
	baseAmplitude      = 100
)

// Espeak speaks through the espeak-ng command line tool. Each utterance runs
// as its own process; cancelling kills it.
type Espeak struct {
	binary string

	mu     sync.Mutex
	voices []models.Voice
	loaded bool
	cmd    *exec.Cmd
	paused bool
}

// NewEspeak returns a synthesizer for binary, or an error when the binary is
// not installed.
func NewEspeak(binary string) (*Espeak, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", binary, err)
	}
	return &Espeak{binary: path}, nil
}

// Voices lists the installed voices. The list is read once and cached.
func (e *Espeak) Voices() []models.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		out, err := exec.Command(e.binary, "--voices").Output()
		if err != nil {
			slog.Warn("Failed to list espeak voices", "error", err)
		} else {
			e.voices = ParseVoices(bytes.NewReader(out))
		}
		e.loaded = true
	}
	return append([]models.Voice(nil), e.voices...)
}

func (e *Espeak) Speak(u assistant.Utterance, ev assistant.SpeechEvents) error {
	cmd := exec.Command(e.binary, Args(u)...)
	cmd.Stdin = strings.NewReader(u.Text)

	e.mu.Lock()
	e.killLocked()
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start %s: %w", e.binary, err)
	}
	e.cmd = cmd
	e.paused = false
	e.mu.Unlock()

	go e.wait(cmd, ev)
	return nil
}

func (e *Espeak) wait(cmd *exec.Cmd, ev assistant.SpeechEvents) {
	ev.OnStart()
	err := cmd.Wait()

	e.mu.Lock()
	current := e.cmd == cmd
	if current {
		e.cmd = nil
		e.paused = false
	}
	e.mu.Unlock()

	// A killed process was cancelled on purpose; its owner already moved on.
	if !current {
		return
	}
	if err != nil {
		ev.OnError(fmt.Errorf("%s: %w", e.binary, err))
		return
	}
	ev.OnEnd()
}

func (e *Espeak) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.killLocked()
}

func (e *Espeak) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil || e.paused {
		return
	}
	if err := suspend(e.cmd.Process); err != nil {
		slog.Debug("Pause not supported", "error", err)
		return
	}
	e.paused = true
}

func (e *Espeak) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil || !e.paused {
		return
	}
	if err := resume(e.cmd.Process); err != nil {
		slog.Warn("Failed to resume espeak", "error", err)
		return
	}
	e.paused = false
}

// Speaking reports whether an utterance is in progress, paused or not.
func (e *Espeak) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cmd != nil
}

func (e *Espeak) killLocked() {
	if e.cmd == nil {
		return
	}
	if e.paused {
		resume(e.cmd.Process)
	}
	if err := e.cmd.Process.Kill(); err != nil {
		slog.Debug("Kill espeak", "error", err)
	}
	e.cmd = nil
	e.paused = false
}

// Args builds the espeak-ng arguments for an utterance. Rate and pitch are
// multipliers of the engine defaults; text is read from stdin.
func Args(u assistant.Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	pitch := int(basePitch * u.Pitch)
	if u.Pitch <= 0 {
		pitch = basePitch
	}
	if pitch > maxPitch {
		pitch = maxPitch
	}
	volume := u.Volume
	if volume <= 0 {
		volume = 1
	}

	args := []string{
		"-s", strconv.Itoa(int(baseWordsPerMinute * rate)),
		"-p", strconv.Itoa(pitch),
		"-a", strconv.Itoa(int(baseAmplitude * volume)),
	}
	if u.Voice != nil && u.Voice.Lang != "" {
		args = append(args, "-v", u.Voice.Lang)
	}
	return append(args, "--stdin")
}

// ParseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File        Other Languages
//	 5  en-gb           --/M      English_(Great_Britain) gmw/en
func ParseVoices(r io.Reader) []models.Voice {
	var voices []models.Voice
	sc := bufio.NewScanner(r)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, models.Voice{
			Name: strings.ReplaceAll(fields[3], "_", " "),
			Lang: fields[1],
		})
	}
	return voices
}
