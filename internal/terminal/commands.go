package terminal

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thinkscotty/wikichat/internal/browser"
	"github.com/thinkscotty/wikichat/internal/models"
)

const helpText = `Type a topic and press enter to look it up.
  /voice        toggle narration
  /stop         stop speaking (esc)
  /rate N       speaking rate, 0.5 to 2
  /pitch N      speaking pitch, 0.5 to 2
  /mic          toggle dictation
  /related N    look up the Nth related topic
  /history N    look up the Nth recent topic
  /open         open the current article in a browser
  /stats        show journal totals
  /quit         exit`

type command struct {
	name string
	arg  string
}

// parseCommand splits a slash command into its name and argument. Input not
// starting with a slash is a query.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

func (a *App) runCommand(c command) tea.Cmd {
	switch c.name {
	case "quit", "exit", "q":
		return tea.Quit
	case "help", "?":
		return notice(helpText)
	case "stop":
		return a.stopCmd()
	case "voice":
		return a.toggleVoiceCmd()
	case "rate", "pitch":
		v, err := strconv.ParseFloat(c.arg, 64)
		if err != nil {
			return notice(fmt.Sprintf("Usage: /%s N", c.name))
		}
		return a.voiceParamCmd(c.name, v)
	case "mic":
		return a.toggleDictationCmd()
	case "related":
		return a.pickCmd(a.related, c.arg, "related topic")
	case "history":
		return a.pickCmd(a.history, c.arg, "recent topic")
	case "open":
		if a.url == "" {
			return notice("No article to open yet.")
		}
		return openBrowserCmd(a.url)
	case "stats":
		return a.statsCmd()
	}
	return notice(fmt.Sprintf("Unknown command /%s. Type /help for a list.", c.name))
}

func notice(text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg(text) }
}

func (a *App) submitCmd(query string) tea.Cmd {
	as := a.assistant
	return func() tea.Msg {
		as.SetInput(query)
		if !as.Orchestrator.SubmitAsync(query) {
			return noticeMsg(busyNotice)
		}
		return nil
	}
}

func (a *App) stopCmd() tea.Cmd {
	as := a.assistant
	return func() tea.Msg {
		as.Narrator.Stop()
		return nil
	}
}

func (a *App) toggleVoiceCmd() tea.Cmd {
	as := a.assistant
	save := a.savePrefs
	return func() tea.Msg {
		if !as.Narrator.Available() {
			return noticeMsg("Voice output is not available on this system.")
		}
		as.Narrator.Toggle()
		voice := as.Snapshot().Voice
		return persist(save, voice.Enabled, voice.Rate, voice.Pitch)
	}
}

func (a *App) voiceParamCmd(name string, v float64) tea.Cmd {
	as := a.assistant
	save := a.savePrefs
	return func() tea.Msg {
		var applied float64
		if name == "rate" {
			applied = as.Narrator.SetRate(v)
		} else {
			applied = as.Narrator.SetPitch(v)
		}
		// Without a synthesizer Enabled reads false; don't overwrite the stored flag.
		if voice := as.Snapshot().Voice; voice.Available {
			if msg := persist(save, voice.Enabled, voice.Rate, voice.Pitch); msg != nil {
				return msg
			}
		}
		return noticeMsg(fmt.Sprintf("Voice %s set to %.1f.", name, applied))
	}
}

func persist(save func(models.VoicePrefs) error, enabled bool, rate, pitch float64) tea.Msg {
	if save == nil {
		return nil
	}
	if err := save(models.VoicePrefs{Enabled: enabled, Rate: rate, Pitch: pitch}); err != nil {
		return errMsg{err: fmt.Errorf("saving voice settings: %w", err)}
	}
	return nil
}

func (a *App) toggleDictationCmd() tea.Cmd {
	as := a.assistant
	return func() tea.Msg {
		if !as.Dictation.Available() {
			return noticeMsg("Voice input is not available on this system.")
		}
		as.Dictation.Toggle()
		return nil
	}
}

// pickCmd submits the 1-based entry arg of titles as a new query.
func (a *App) pickCmd(titles []string, arg, what string) tea.Cmd {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(titles) {
		if len(titles) == 0 {
			return notice(fmt.Sprintf("No %s to pick from.", what))
		}
		return notice(fmt.Sprintf("Pick a %s between 1 and %d.", what, len(titles)))
	}
	return a.submitCmd(titles[n-1])
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) statsCmd() tea.Cmd {
	stats := a.stats
	m := a.metrics
	return func() tea.Msg {
		session := fmt.Sprintf("This session: %d queries, %d words, last answer in %dms.", m.Queries, m.Words, m.LatencyMs)
		if stats == nil {
			return noticeMsg(session)
		}
		s, err := stats()
		if err != nil {
			return errMsg{err: fmt.Errorf("loading stats: %w", err)}
		}
		return noticeMsg(fmt.Sprintf("%s\nAll time: %d queries (%d found, %d not found, %d failed), %d words, %.0fms average.",
			session, s.TotalQueries, s.FoundQueries, s.NotFoundQueries, s.FailedQueries, s.TotalWords, s.AverageLatencyMs))
	}
}
