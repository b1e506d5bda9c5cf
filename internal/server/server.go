package server

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	wikichat "github.com/thinkscotty/wikichat"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/config"
	"github.com/thinkscotty/wikichat/internal/models"
)

// Store is the persistence the HTTP API reads from and saves preferences to.
type Store interface {
	RecentQueries(limit int) ([]models.QueryLog, error)
	GetStats() (models.Stats, error)
	SaveVoicePrefs(p models.VoicePrefs) error
}

type Server struct {
	cfg     config.Config
	app     *assistant.Assistant
	hub     *Hub
	bridge  *Bridge
	store   Store
	version string
	page    *template.Template
	httpSrv *http.Server
}

// New builds the HTTP surface for an assistant whose sink is hub and whose
// speech platform is bridge. store may be nil when the journal is disabled.
func New(cfg config.Config, app *assistant.Assistant, hub *Hub, bridge *Bridge, store Store, version string) (*Server, error) {
	page, err := template.ParseFS(wikichat.TemplateFS, "web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Server{
		cfg:     cfg,
		app:     app,
		hub:     hub,
		bridge:  bridge,
		store:   store,
		version: version,
		page:    page,
	}, nil
}

// Handler returns the routed handler wrapped in the standard middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return recoveryMiddleware(loggingMiddleware(mux))
}

// Start sets up routes and starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	slog.Info("Starting server", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown ends open event streams, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes(mux *http.ServeMux) {
	staticFS, _ := fs.Sub(wikichat.StaticFS, "web/static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/query", s.handleQuery)

	mux.HandleFunc("POST /api/voice/toggle", s.handleVoiceToggle)
	mux.HandleFunc("POST /api/voice/stop", s.handleVoiceStop)
	mux.HandleFunc("POST /api/voice/settings", s.handleVoiceSettings)
	mux.HandleFunc("POST /api/dictation/toggle", s.handleDictationToggle)

	mux.HandleFunc("POST /api/platform/voices", s.handlePlatformVoices)
	mux.HandleFunc("POST /api/platform/speech", s.handlePlatformSpeech)
	mux.HandleFunc("POST /api/platform/dictation", s.handlePlatformDictation)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/journal", s.handleJournal)
}
