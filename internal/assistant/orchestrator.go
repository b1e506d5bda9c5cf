package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thinkscotty/wikichat/internal/models"
	"github.com/thinkscotty/wikichat/internal/summary"
)

const (
	notFoundMessage = `Unable to find information about "%s". Please try a different topic.`
	failureMessage  = "An error occurred while fetching data. Please try again."
)

// Orchestrator runs one query at a time through lookup, summary, rendering
// and narration.
type Orchestrator struct {
	a        *Assistant
	provider Provider
	journal  Journal
}

// Submit runs query to completion. It returns false without side effects when
// the query is blank or another query is in flight.
func (o *Orchestrator) Submit(ctx context.Context, query string) bool {
	query = strings.TrimSpace(query)
	if !o.accept(query) {
		return false
	}
	o.run(ctx, query)
	return true
}

// SubmitAsync accepts query synchronously and runs the pipeline in the
// background for the lifetime of the assistant.
func (o *Orchestrator) SubmitAsync(query string) bool {
	query = strings.TrimSpace(query)
	if !o.accept(query) {
		return false
	}
	go o.run(o.a.ctx, query)
	return true
}

// SubmitPending submits whatever is currently in the input field.
func (o *Orchestrator) SubmitPending(ctx context.Context) bool {
	o.a.state.mu.Lock()
	input := o.a.state.input
	o.a.state.mu.Unlock()
	return o.Submit(ctx, input)
}

func (o *Orchestrator) accept(query string) bool {
	if query == "" {
		return false
	}

	s := o.a.state
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		slog.Debug("Query rejected, another is in flight", "query", query)
		return false
	}
	s.busy = true
	s.input = ""
	s.mu.Unlock()

	sink := o.a.sink
	sink.SetBusy(true)
	sink.SetInput("")
	sink.AppendMessage(RoleUser, query)
	o.a.setStatus(StatusSearching)
	return true
}

func (o *Orchestrator) run(ctx context.Context, query string) {
	start := time.Now()
	defer o.finish()

	entry := models.QueryLog{
		ID:        uuid.NewString(),
		Query:     query,
		CreatedAt: start.UTC(),
	}

	article, err := o.provider.Lookup(ctx, query)
	switch {
	case errors.Is(err, models.ErrNotFound):
		slog.Info("No article found", "query", query)
		o.a.sink.AppendMessage(RoleBot, fmt.Sprintf(notFoundMessage, query))
		entry.Outcome = models.OutcomeNotFound
	case err != nil:
		slog.Error("Lookup failed", "query", query, "error", err)
		o.a.sink.AppendMessage(RoleBot, failureMessage)
		entry.Outcome = models.OutcomeError
	default:
		entry.Outcome = models.OutcomeFound
		entry.Title = article.Title
		entry.Words = o.answer(ctx, article, start)
	}

	entry.LatencyMs = time.Since(start).Milliseconds()
	o.record(entry)
}

// answer renders a found article and returns the summary word count.
func (o *Orchestrator) answer(ctx context.Context, article models.Article, start time.Time) int {
	a := o.a
	a.setStatus(StatusAnalyzing)
	sleep(ctx, a.opts.StatusDelay)

	text := summary.Summarize(article.Extract)

	a.Narrator.Speak(text)
	o.reveal(ctx, text)

	a.sink.SetSummary(text, article.Title, article.URL)
	a.sink.SetRelated(article.Related)

	words := summary.WordCount(text)

	s := a.state
	s.mu.Lock()
	s.history.Push(article.Title)
	history := s.history.Titles()
	s.metrics.Queries++
	s.metrics.Words += words
	s.metrics.LatencyMs = time.Since(start).Milliseconds()
	metrics := s.metrics
	s.mu.Unlock()

	a.sink.SetHistory(history)
	a.sink.SetMetrics(metrics)

	slog.Info("Answered query", "title", article.Title, "words", words, "latency_ms", metrics.LatencyMs)
	return words
}

// reveal streams text one character at a time. A cancelled context flushes
// the remainder at once.
func (o *Orchestrator) reveal(ctx context.Context, text string) {
	stream := o.a.sink.BeginMessage(RoleBot)
	defer stream.Close()

	runes := []rune(text)
	for i, r := range runes {
		if ctx.Err() != nil {
			stream.Append(string(runes[i:]))
			return
		}
		stream.Append(string(r))
		sleep(ctx, o.a.opts.CharDelay)
	}
}

func (o *Orchestrator) finish() {
	a := o.a
	s := a.state
	s.mu.Lock()
	s.busy = false
	speaking := s.speaking
	s.mu.Unlock()

	a.sink.SetBusy(false)
	if !speaking {
		a.publishVoice()
		a.restoreIdle()
	}
}

func (o *Orchestrator) record(entry models.QueryLog) {
	if o.journal == nil {
		return
	}
	if err := o.journal.RecordQuery(entry); err != nil {
		slog.Warn("Failed to record query", "query", entry.Query, "error", err)
	}
}
