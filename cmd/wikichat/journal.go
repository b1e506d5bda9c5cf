package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/thinkscotty/wikichat/internal/updater"
)

var flagPruneDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show query journal statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openJournal(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.db.GetStats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		recent, err := e.db.RecentQueries(5)
		if err != nil {
			return fmt.Errorf("reading journal: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Journal: %s (%s)\n", e.cfg.Database.Path, updater.FormatBytes(s.DatabaseSizeBytes))
		fmt.Fprintf(out, "Queries: %d (%d found, %d not found, %d failed)\n", s.TotalQueries, s.FoundQueries, s.NotFoundQueries, s.FailedQueries)
		fmt.Fprintf(out, "Words: %d\n", s.TotalWords)
		fmt.Fprintf(out, "Average latency: %.0fms\n", s.AverageLatencyMs)
		for _, q := range recent {
			fmt.Fprintf(out, "  %s  %-9s  %s\n", q.CreatedAt.Local().Format("Jan 2 15:04"), q.Outcome, q.Query)
		}
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old entries from the query journal",
	Long: `Delete journal entries older than the retention period.

Uses database.retention_days from config unless overridden with --days.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openJournal(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer e.Close()

		days := e.cfg.Database.RetentionDays
		if flagPruneDays > 0 {
			days = flagPruneDays
		}
		if days <= 0 {
			return errors.New("retention is disabled; pass --days")
		}

		deleted, err := e.db.CleanOldQueries(days)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries older than %dd\n", deleted, days)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&flagPruneDays, "days", 0, "override the retention period in days")
}

// openJournal is setup for commands that need the journal enabled.
func openJournal(logOut io.Writer) (*env, error) {
	e, err := setup(logOut)
	if err != nil {
		return nil, err
	}
	if e.db == nil {
		return nil, errors.New("the query journal is disabled (database.path is empty)")
	}
	return e, nil
}
