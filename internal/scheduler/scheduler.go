package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Journal is the part of the query journal the scheduler maintains.
type Journal interface {
	CleanOldQueries(days int) (int64, error)
}

// Scheduler prunes journal entries older than the retention window.
type Scheduler struct {
	journal       Journal
	retentionDays int
	interval      time.Duration
}

func New(journal Journal, retentionDays int, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{journal: journal, retentionDays: retentionDays, interval: interval}
}

// Run starts the scheduler loop. It returns immediately when retention is
// disabled (zero or negative days).
func (s *Scheduler) Run(ctx context.Context) {
	if s.retentionDays <= 0 {
		slog.Debug("Journal retention disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "retention_days", s.retentionDays, "interval", s.interval)

	// Run once immediately at startup
	s.prune()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.prune()
		}
	}
}

func (s *Scheduler) prune() {
	n, err := s.journal.CleanOldQueries(s.retentionDays)
	if err != nil {
		slog.Error("Failed to prune query journal", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Pruned query journal", "deleted", n)
	}
}
