package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/scheduler"
	"github.com/thinkscotty/wikichat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat widget over HTTP",
	Long:  "serve hosts the chat widget. Narration and dictation run in the visitor's browser.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	slog.Info("Starting wikichat", "version", version)

	hub := server.NewHub()
	bridge := server.NewBridge(hub)

	var rec assistant.Recognizer
	if e.cfg.Dictation.Enabled {
		rec = bridge
	}

	a := assistant.New(e.provider, bridge, rec, hub, assistantOptions(e.cfg, e.voicePrefs(), e.journal()))
	defer a.Close()
	bridge.OnVoicesChanged(a.Narrator.ReloadVoices)

	var store server.Store
	if e.db != nil {
		store = e.db
	}
	srv, err := server.New(e.cfg, a, hub, bridge, store, version)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if e.db != nil {
		sched := scheduler.New(e.db, e.cfg.Database.RetentionDays, 0)
		go sched.Run(ctx)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Shutdown incomplete", "error", err)
		}
	}()

	slog.Info("Server listening", "addr", fmt.Sprintf("%s:%d", e.cfg.Server.Host, e.cfg.Server.Port))
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
