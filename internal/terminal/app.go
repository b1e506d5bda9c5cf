// Package terminal is the interactive chat front end: a bubbletea program fed
// by the assistant through Sink, plus a line printer for one-shot queries.
package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

const busyNotice = "Still working on the previous question."

type chatLine struct {
	role   assistant.Role
	text   string
	notice bool
}

// App is the chat model. It never calls into the assistant from Update
// directly: every call runs inside a tea.Cmd so that sink updates, which go
// through Program.Send, cannot block the event loop.
type App struct {
	assistant *assistant.Assistant
	stats     func() (models.Stats, error)
	savePrefs func(models.VoicePrefs) error

	input   textinput.Model
	spinner spinner.Model

	lines   []chatLine
	streams map[int64]int

	status    string
	busy      bool
	summary   string
	title     string
	url       string
	related   []string
	history   []string
	metrics   models.Metrics
	voice     assistant.VoiceState
	dictation assistant.DictationState

	err    error
	width  int
	height int
}

// Options holds everything needed to launch the chat program.
type Options struct {
	Assistant *assistant.Assistant
	Sink      *Sink

	// Stats reports the persisted journal; nil hides /stats.
	Stats func() (models.Stats, error)
	// SavePrefs persists voice settings after they change; may be nil.
	SavePrefs func(models.VoicePrefs) error
}

func NewApp(opts Options) *App {
	ti := textinput.New()
	ti.Placeholder = "Ask about any topic, or /help"
	ti.Prompt = promptStyle.Render("> ")
	ti.CharLimit = 200
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	snap := opts.Assistant.Snapshot()
	ti.SetValue(snap.Input)

	return &App{
		assistant: opts.Assistant,
		stats:     opts.Stats,
		savePrefs: opts.SavePrefs,
		input:     ti,
		spinner:   sp,
		streams:   make(map[int64]int),
		status:    snap.Status,
		busy:      snap.Busy,
		history:   snap.History,
		metrics:   snap.Metrics,
		voice:     snap.Voice,
		dictation: snap.Dictation,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(10, msg.Width-4)
		return a, nil

	case tea.KeyMsg:
		a.err = nil
		return a.handleKey(msg)

	case messageMsg:
		a.lines = append(a.lines, chatLine{role: msg.role, text: msg.text})
		return a, nil

	case beginMsg:
		a.streams[msg.id] = len(a.lines)
		a.lines = append(a.lines, chatLine{role: msg.role})
		return a, nil

	case appendMsg:
		if i, ok := a.streams[msg.id]; ok {
			a.lines[i].text += msg.text
		}
		return a, nil

	case statusMsg:
		a.status = string(msg)
		return a, nil

	case busyMsg:
		a.busy = bool(msg)
		return a, nil

	case inputMsg:
		a.input.SetValue(string(msg))
		a.input.CursorEnd()
		return a, nil

	case summaryMsg:
		a.summary, a.title, a.url = msg.summary, msg.title, msg.url
		return a, nil

	case relatedMsg:
		a.related = msg
		return a, nil

	case historyMsg:
		a.history = msg
		return a, nil

	case metricsMsg:
		a.metrics = models.Metrics(msg)
		return a, nil

	case voiceMsg:
		a.voice = assistant.VoiceState(msg)
		return a, nil

	case dictationMsg:
		a.dictation = assistant.DictationState(msg)
		return a, nil

	case noticeMsg:
		a.lines = append(a.lines, chatLine{text: string(msg), notice: true})
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		return a, a.stopCmd()
	case "enter":
		line := strings.TrimSpace(a.input.Value())
		if line == "" {
			return a, nil
		}
		if c, ok := parseCommand(line); ok {
			a.input.Reset()
			return a, a.runCommand(c)
		}
		return a, a.submitCmd(line)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	value := a.input.Value()
	as := a.assistant
	return a, tea.Batch(cmd, func() tea.Msg {
		as.SetInput(value)
		return nil
	})
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  wikichat")
	}

	header := headerStyle.Render("wikichat")
	status := statusStyle.Render(a.status)
	if a.busy {
		status = a.spinner.View() + " " + status
	}
	gap := max(1, a.width-lipgloss.Width(header)-lipgloss.Width(status)-1)
	top := header + strings.Repeat(" ", gap) + status

	side := a.renderSide()
	chatWidth := max(20, a.width-lipgloss.Width(side)-1)
	inputHeight := 1
	if a.err != nil {
		inputHeight++
	}
	chatHeight := max(3, a.height-inputHeight-3)
	chat := a.renderChat(chatWidth, chatHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, chat, " ", side)

	bottom := a.input.View()
	if a.err != nil {
		bottom = lipgloss.NewStyle().Foreground(colorAccent).Render("  Error: "+a.err.Error()) + "\n" + bottom
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		body,
		bottom,
		renderStatusBar(a.metrics, a.voice, a.dictation, a.width),
	)
}

// renderChat wraps every line to width and keeps only the newest height rows.
func (a *App) renderChat(width, height int) string {
	var rows []string
	for _, l := range a.lines {
		var text string
		switch {
		case l.notice:
			text = noticeStyle.Render(l.text)
		case l.role == assistant.RoleUser:
			text = userLabelStyle.Render("you ") + bodyStyle.Render(l.text)
		default:
			text = botLabelStyle.Render("wiki ") + bodyStyle.Render(l.text)
		}
		wrapped := lipgloss.NewStyle().Width(width).Render(text)
		rows = append(rows, strings.Split(wrapped, "\n")...)
		rows = append(rows, "")
	}
	if len(rows) > height {
		rows = rows[len(rows)-height:]
	}
	return lipgloss.NewStyle().Width(width).Height(height).Render(strings.Join(rows, "\n"))
}

func (a *App) renderSide() string {
	width := min(40, max(20, a.width/3))
	inner := width - 4

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Article"))
	b.WriteString("\n")
	if a.title == "" {
		b.WriteString(noticeStyle.Render("Nothing yet"))
	} else {
		b.WriteString(bodyStyle.Render(truncate(a.title, inner)))
		b.WriteString("\n")
		b.WriteString(linkStyle.Render(truncate(a.url, inner)))
	}

	b.WriteString("\n\n")
	b.WriteString(panelTitleStyle.Render("Related"))
	for i, t := range a.related {
		fmt.Fprintf(&b, "\n%s", chipStyle.Render(truncate(fmt.Sprintf("%d. %s", i+1, t), inner)))
	}

	b.WriteString("\n\n")
	b.WriteString(panelTitleStyle.Render("Recent"))
	for i, t := range a.history {
		fmt.Fprintf(&b, "\n%s", bodyStyle.Render(truncate(fmt.Sprintf("%d. %s", i+1, t), inner)))
	}

	return panelStyle.Width(width - 2).Render(b.String())
}

func renderStatusBar(m models.Metrics, v assistant.VoiceState, d assistant.DictationState, width int) string {
	left := fmt.Sprintf(" %d queries · %d words · %dms", m.Queries, m.Words, m.LatencyMs)
	if v.Available {
		state := "off"
		if v.Enabled {
			state = "on"
		}
		left += fmt.Sprintf(" · voice %s %.1fx", state, v.Rate)
	}
	if d.Listening {
		left += " · listening"
	}

	right := " esc stop  /help  ctrl+c quit "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right
	return statusBarStyle.Width(width).Render(bar)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Run starts the chat program and blocks until the user quits.
func Run(opts Options) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	opts.Sink.Attach(p.Send)
	defer opts.Sink.Attach(nil)
	_, err := p.Run()
	return err
}
