package terminal

import (
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/models"
)

// Messages forwarded from the assistant through Sink.

type messageMsg struct {
	role assistant.Role
	text string
}

type beginMsg struct {
	id   int64
	role assistant.Role
}

type appendMsg struct {
	id   int64
	text string
}

type statusMsg string

type busyMsg bool

type inputMsg string

type summaryMsg struct {
	summary, title, url string
}

type relatedMsg []string

type historyMsg []string

type metricsMsg models.Metrics

type voiceMsg assistant.VoiceState

type dictationMsg assistant.DictationState

// Messages produced by commands run from the input line.

type noticeMsg string

type errMsg struct {
	err error
}
