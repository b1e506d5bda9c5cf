package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thinkscotty/wikichat/internal/models"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}
	if !s.app.Orchestrator.SubmitAsync(query) {
		jsonError(w, "A query is already in progress", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "query": query})
}

func (s *Server) handlePlatformVoices(w http.ResponseWriter, r *http.Request) {
	var voices []models.Voice
	if err := decodeJSON(w, r, &voices); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.bridge.SetVoices(voices)
	jsonResponse(w, s.app.Snapshot().Voice)
}

func (s *Server) handlePlatformSpeech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Event string `json:"event"`
		Error string `json:"error"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.bridge.SpeechEvent(req.ID, req.Event, req.Error); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlatformDictation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string `json:"id"`
		Event      string `json:"event"`
		Transcript string `json:"transcript"`
		Final      bool   `json:"final"`
		Error      string `json:"error"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.bridge.DictationEvent(req.ID, req.Event, req.Transcript, req.Final, req.Error); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("request body is empty")
		}
		slog.Debug("Invalid request body", "path", r.URL.Path, "error", err)
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// writeEvent frames one event for a text/event-stream response.
func writeEvent(w io.Writer, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Type, err)
	}
	return writeData(w, payload)
}

func writeData(w io.Writer, payload []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
