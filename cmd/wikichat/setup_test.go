package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thinkscotty/wikichat/internal/config"
	"github.com/thinkscotty/wikichat/internal/database"
	"github.com/thinkscotty/wikichat/internal/models"
)

func TestAssistantOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pacing.CharDelayMs = 5
	cfg.Narration.KeepAliveSeconds = 0

	opts := assistantOptions(cfg, models.VoicePrefs{Enabled: false, Rate: 1.4, Pitch: 0.8}, nil)

	if opts.CharDelay != 5*time.Millisecond {
		t.Errorf("CharDelay = %v, want 5ms", opts.CharDelay)
	}
	if opts.StatusDelay != 500*time.Millisecond {
		t.Errorf("StatusDelay = %v, want 500ms", opts.StatusDelay)
	}
	if opts.KeepAliveInterval != 10*time.Second {
		t.Errorf("KeepAliveInterval = %v, want 10s fallback", opts.KeepAliveInterval)
	}
	if opts.VoiceEnabled || opts.Rate != 1.4 || opts.Pitch != 0.8 {
		t.Errorf("voice prefs not applied: %+v", opts)
	}
	if len(opts.PreferredVoices) != len(cfg.Narration.PreferredVoices) {
		t.Errorf("PreferredVoices = %v", opts.PreferredVoices)
	}
	if opts.Journal != nil {
		t.Error("Journal should be nil")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := newLogger(tt.level, &buf)
		ctx := context.Background()
		if !logger.Enabled(ctx, tt.want) {
			t.Errorf("newLogger(%q) disables %v", tt.level, tt.want)
		}
		if tt.want > slog.LevelDebug && logger.Enabled(ctx, tt.want-1) {
			t.Errorf("newLogger(%q) enables below %v", tt.level, tt.want)
		}
	}
}

func TestLocalSynthesizerDisabled(t *testing.T) {
	cfg := config.DefaultConfig().Narration
	cfg.Engine = "none"
	if s := localSynthesizer(cfg); s != nil {
		t.Errorf("engine none returned %T", s)
	}

	cfg.Engine = "espeak"
	cfg.Binary = "wikichat-no-such-binary"
	if s := localSynthesizer(cfg); s != nil {
		t.Errorf("missing binary returned %T", s)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(buf.String(), "wikichat dev") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestJournalCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	yml := "logging:\n  level: error\ndatabase:\n  path: " + dbPath + "\n  retention_days: 30\n"
	if err := os.WriteFile(cfgPath, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	entries := []models.QueryLog{
		{ID: "a", Query: "Ada", Title: "Ada Lovelace", Outcome: models.OutcomeFound, Words: 40, LatencyMs: 120, CreatedAt: time.Now().UTC()},
		{ID: "b", Query: "qwzx", Outcome: models.OutcomeNotFound, CreatedAt: time.Now().UTC().AddDate(0, 0, -60)},
	}
	for _, q := range entries {
		if err := db.RecordQuery(q); err != nil {
			t.Fatalf("RecordQuery: %v", err)
		}
	}
	db.Close()

	flagConfig = cfgPath
	t.Cleanup(func() { flagConfig = "" })

	var out bytes.Buffer
	statsCmd.SetOut(&out)
	statsCmd.SetErr(&out)
	if err := statsCmd.RunE(statsCmd, nil); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out.String(), "Queries: 2 (1 found, 1 not found, 0 failed)") {
		t.Errorf("stats output:\n%s", out.String())
	}

	out.Reset()
	pruneCmd.SetOut(&out)
	pruneCmd.SetErr(&out)
	if err := pruneCmd.RunE(pruneCmd, nil); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted 1 entries older than 30d") {
		t.Errorf("prune output:\n%s", out.String())
	}
}
