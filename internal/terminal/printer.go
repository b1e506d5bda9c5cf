package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

// Printer is a Sink that writes the conversation to w as plain styled lines.
// Status, busy and control state changes are not printed.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func label(role assistant.Role) string {
	if role == assistant.RoleUser {
		return userLabelStyle.Render("you")
	}
	return botLabelStyle.Render("wiki")
}

func (p *Printer) AppendMessage(role assistant.Role, text string) {
	p.printf("%s %s\n", label(role), text)
}

type printerStream struct {
	p *Printer
}

func (s printerStream) Append(text string) { s.p.printf("%s", text) }
func (s printerStream) Close()             { s.p.printf("\n") }

func (p *Printer) BeginMessage(role assistant.Role) assistant.MessageStream {
	p.printf("%s ", label(role))
	return printerStream{p: p}
}

func (p *Printer) SetSummary(summary, title, url string) {
	if title == "" {
		return
	}
	p.printf("%s %s\n", panelTitleStyle.Render("source"), linkStyle.Render(title+" "+url))
}

func (p *Printer) SetRelated(titles []string) {
	if len(titles) == 0 {
		return
	}
	p.printf("%s %s\n", panelTitleStyle.Render("related"), chipStyle.Render(strings.Join(titles, " · ")))
}

func (p *Printer) SetStatus(string)                      {}
func (p *Printer) SetBusy(bool)                          {}
func (p *Printer) SetInput(string)                       {}
func (p *Printer) SetHistory([]string)                   {}
func (p *Printer) SetMetrics(models.Metrics)             {}
func (p *Printer) SetVoice(assistant.VoiceState)         {}
func (p *Printer) SetDictation(assistant.DictationState) {}
