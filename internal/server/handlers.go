package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/storage"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Execute handler ---

type executeRequest struct {
	Code            string            `json:"code"`
	Files           map[string]string `json:"files,omitempty"`
	Strace          bool              `json:"strace,omitempty"`
	InterpreterMode bool              `json:"interpreter_mode,omitempty"`
}

type executeResponse struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// No validation of the code itself: an empty or broken snippet is the
	// sandbox's to complain about, and its text comes back like any output.
	started := time.Now()
	output, err := s.client.Exec(r.Context(), evalclient.Request{
		Code:            req.Code,
		Files:           req.Files,
		Strace:          req.Strace,
		InterpreterMode: req.InterpreterMode,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, "sandbox unreachable: "+err.Error())
		return
	}

	run := &storage.Run{
		ID:              uuid.New().String(),
		Source:          storage.SourceAPI,
		Code:            req.Code,
		Output:          output,
		Strace:          req.Strace,
		InterpreterMode: req.InterpreterMode,
		Duration:        time.Since(started),
	}
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, "recording run: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, executeResponse{ID: run.ID, Output: output})
}

// --- Run history handlers ---

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	opts := storage.RunListOptions{}

	if source := r.URL.Query().Get("source"); source != "" {
		opts.Source = storage.RunSource(source)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	runs, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
