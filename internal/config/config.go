package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Narration NarrationConfig `yaml:"narration"`
	Dictation DictationConfig `yaml:"dictation"`
	Pacing    PacingConfig    `yaml:"pacing"`
}

type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	// Path of the SQLite journal. Empty disables the journal.
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type WikipediaConfig struct {
	APIURL         string `yaml:"api_url"`
	WikiURL        string `yaml:"wiki_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RelatedLimit   int    `yaml:"related_limit"`
}

type NarrationConfig struct {
	Enabled bool `yaml:"enabled"`
	// Engine selects the local synthesizer for terminal mode: "espeak" or "none".
	// The HTTP widget always narrates in the browser.
	Engine           string   `yaml:"engine"`
	Binary           string   `yaml:"binary"`
	Rate             float64  `yaml:"rate"`
	Pitch            float64  `yaml:"pitch"`
	PreferredVoices  []string `yaml:"preferred_voices"`
	KeepAliveSeconds int      `yaml:"keep_alive_seconds"`
}

type DictationConfig struct {
	Enabled bool `yaml:"enabled"`
}

type PacingConfig struct {
	StatusDelayMs int `yaml:"status_delay_ms"`
	CharDelayMs   int `yaml:"char_delay_ms"`
	SubmitDelayMs int `yaml:"submit_delay_ms"`
	ErrorStatusMs int `yaml:"error_status_ms"`
	FeedbackMs    int `yaml:"feedback_ms"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8080,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 0, // SSE streams stay open
		},
		Database: DatabaseConfig{
			Path:          DefaultDatabasePath(),
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Wikipedia: WikipediaConfig{
			APIURL:         "https://en.wikipedia.org/w/api.php",
			WikiURL:        "https://en.wikipedia.org/wiki",
			UserAgent:      "wikichat/1.0 (Wikipedia chat assistant; +https://github.com/thinkscotty/wikichat)",
			TimeoutSeconds: 15,
			RelatedLimit:   5,
		},
		Narration: NarrationConfig{
			Enabled: true,
			Engine:  "espeak",
			Binary:  "espeak-ng",
			Rate:    1.0,
			Pitch:   1.0,
			PreferredVoices: []string{
				"Google UK English Female",
				"Google UK English Male",
				"Google US English",
				"Microsoft Zira",
				"Microsoft David",
				"Samantha",
				"Alex",
				"Karen",
				"Daniel",
			},
			KeepAliveSeconds: 10,
		},
		Dictation: DictationConfig{
			Enabled: true,
		},
		Pacing: PacingConfig{
			StatusDelayMs: 500,
			CharDelayMs:   15,
			SubmitDelayMs: 300,
			ErrorStatusMs: 2000,
			FeedbackMs:    1500,
		},
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "wikichat", "config.yaml")
}

// DefaultDatabasePath returns the per-user journal location.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, "wikichat", "wikichat.db")
}

// Load reads a YAML config file and merges it over defaults.
// If the file does not exist, defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No config file found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (p PacingConfig) StatusDelay() time.Duration { return ms(p.StatusDelayMs) }
func (p PacingConfig) CharDelay() time.Duration   { return ms(p.CharDelayMs) }
func (p PacingConfig) SubmitDelay() time.Duration { return ms(p.SubmitDelayMs) }
func (p PacingConfig) ErrorStatus() time.Duration { return ms(p.ErrorStatusMs) }
func (p PacingConfig) Feedback() time.Duration    { return ms(p.FeedbackMs) }

// KeepAlive returns the pause/resume interval, falling back to 10s.
func (n NarrationConfig) KeepAlive() time.Duration {
	if n.KeepAliveSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.KeepAliveSeconds) * time.Second
}

func (w WikipediaConfig) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

func ms(n int) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}
