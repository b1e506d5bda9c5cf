package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/config"
	"github.com/thinkscotty/wikichat/internal/database"
	"github.com/thinkscotty/wikichat/internal/models"
	"github.com/thinkscotty/wikichat/internal/speech"
	"github.com/thinkscotty/wikichat/internal/wikipedia"
)

// env is what every subcommand builds before creating an assistant.
type env struct {
	cfg      config.Config
	db       *database.DB // nil when the journal is disabled
	provider *wikipedia.Client
}

func setup(logOut io.Writer) (*env, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(newLogger(cfg.Logging.Level, logOut))

	e := &env{
		cfg: cfg,
		provider: wikipedia.New(wikipedia.Options{
			APIURL:       cfg.Wikipedia.APIURL,
			WikiURL:      cfg.Wikipedia.WikiURL,
			UserAgent:    cfg.Wikipedia.UserAgent,
			Timeout:      cfg.Wikipedia.Timeout(),
			RelatedLimit: cfg.Wikipedia.RelatedLimit,
		}),
	}

	if cfg.Database.Path != "" {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		slog.Info("Database initialized", "path", cfg.Database.Path)
		e.db = db
	}
	return e, nil
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// journal returns the query journal, or a nil interface when disabled.
func (e *env) journal() assistant.Journal {
	if e.db == nil {
		return nil
	}
	return e.db
}

func (e *env) voicePrefs() models.VoicePrefs {
	def := models.VoicePrefs{
		Enabled: e.cfg.Narration.Enabled,
		Rate:    e.cfg.Narration.Rate,
		Pitch:   e.cfg.Narration.Pitch,
	}
	if e.db == nil {
		return def
	}
	return e.db.VoicePrefs(def)
}

// localSynthesizer returns the configured on-device voice, or nil when
// narration has no engine on this machine.
func localSynthesizer(cfg config.NarrationConfig) assistant.Synthesizer {
	if cfg.Engine != "espeak" {
		return nil
	}
	synth, err := speech.NewEspeak(cfg.Binary)
	if err != nil {
		slog.Warn("Narration unavailable", "error", err)
		return nil
	}
	return synth
}

func assistantOptions(cfg config.Config, prefs models.VoicePrefs, journal assistant.Journal) assistant.Options {
	return assistant.Options{
		StatusDelay:       cfg.Pacing.StatusDelay(),
		CharDelay:         cfg.Pacing.CharDelay(),
		SubmitDelay:       cfg.Pacing.SubmitDelay(),
		ErrorStatusDelay:  cfg.Pacing.ErrorStatus(),
		FeedbackDelay:     cfg.Pacing.Feedback(),
		KeepAliveInterval: cfg.Narration.KeepAlive(),
		VoiceEnabled:      prefs.Enabled,
		Rate:              prefs.Rate,
		Pitch:             prefs.Pitch,
		PreferredVoices:   cfg.Narration.PreferredVoices,
		Journal:           journal,
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
