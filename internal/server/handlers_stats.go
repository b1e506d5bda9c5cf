package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/thinkscotty/wikichat/internal/models"
)

const (
	defaultJournalLimit = 20
	maxJournalLimit     = 100
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"session": s.app.Snapshot().Metrics,
	}
	if s.store != nil {
		stats, err := s.store.GetStats()
		if err != nil {
			slog.Error("Failed to get stats", "error", err)
			jsonError(w, "Failed to load stats", http.StatusInternalServerError)
			return
		}
		data["journal"] = stats
	}
	jsonResponse(w, data)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "Query journal is disabled", http.StatusNotFound)
		return
	}

	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := s.store.RecentQueries(limit)
	if err != nil {
		slog.Error("Failed to list journal", "error", err)
		jsonError(w, "Failed to load journal", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.QueryLog{}
	}
	jsonResponse(w, map[string]any{"queries": entries})
}
