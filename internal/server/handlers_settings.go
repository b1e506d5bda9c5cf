package server

import (
	"log/slog"
	"net/http"

	"github.com/thinkscotty/wikichat/internal/models"
)

func (s *Server) handleVoiceToggle(w http.ResponseWriter, r *http.Request) {
	if !s.app.Narrator.Available() {
		jsonError(w, "Narration is not available", http.StatusNotFound)
		return
	}
	s.app.Narrator.Toggle()
	s.saveVoicePrefs()
	jsonResponse(w, s.app.Snapshot().Voice)
}

func (s *Server) handleVoiceStop(w http.ResponseWriter, r *http.Request) {
	s.app.Narrator.Stop()
	jsonResponse(w, s.app.Snapshot().Voice)
}

func (s *Server) handleVoiceSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate  *float64 `json:"rate"`
		Pitch *float64 `json:"pitch"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Rate == nil && req.Pitch == nil {
		jsonError(w, "rate or pitch is required", http.StatusBadRequest)
		return
	}

	if req.Rate != nil {
		s.app.Narrator.SetRate(*req.Rate)
	}
	if req.Pitch != nil {
		s.app.Narrator.SetPitch(*req.Pitch)
	}
	s.saveVoicePrefs()
	jsonResponse(w, s.app.Snapshot().Voice)
}

func (s *Server) handleDictationToggle(w http.ResponseWriter, r *http.Request) {
	if !s.app.Dictation.Available() {
		jsonError(w, "Dictation is not available", http.StatusNotFound)
		return
	}
	s.app.Dictation.Toggle()
	jsonResponse(w, s.app.Snapshot().Dictation)
}

func (s *Server) saveVoicePrefs() {
	if s.store == nil {
		return
	}
	v := s.app.Snapshot().Voice
	prefs := models.VoicePrefs{Enabled: v.Enabled, Rate: v.Rate, Pitch: v.Pitch}
	if err := s.store.SaveVoicePrefs(prefs); err != nil {
		slog.Warn("Failed to save voice preferences", "error", err)
	}
}
