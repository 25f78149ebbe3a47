package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/poivr/internal/store"
	"github.com/ayusman/poivr/internal/trick"
)

// SessionHandler handles HTTP requests for play sessions and their tricks.
type SessionHandler struct {
	store *store.Store
	log   *store.TrickLog
}

// NewSessionHandler creates a new SessionHandler. When tl is non-nil,
// starting a session directs recognized tricks into it and ending the
// session stops recording.
func NewSessionHandler(s *store.Store, tl *store.TrickLog) *SessionHandler {
	return &SessionHandler{store: s, log: tl}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id} or /api/sessions/{id}/tricks
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.start(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.summary(w, r, id)
		case http.MethodDelete:
			h.end(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "tricks":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.tricks(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type startSessionRequest struct {
	Label string `json:"label"`
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

type summaryResponse struct {
	Session  *store.Session     `json:"session"`
	Counts   map[trick.Kind]int `json:"counts"`
	Total    int                `json:"total"`
	Compound int                `json:"compound"` // flowers, weaves and double stalls
}

type listTricksResponse struct {
	Tricks []store.TrickRecord `json:"tricks"`
}

// list handles GET /api/sessions and returns every session, newest first.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

// start handles POST /api/sessions. An empty body starts an unlabelled
// session. Any session the trick log was recording into is ended first.
func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if h.log != nil {
		if prev := h.log.Session(); prev != "" {
			if _, err := h.store.Sessions().End(prev); err != nil && !errors.Is(err, store.ErrSessionEnded) && !errors.Is(err, store.ErrNotFound) {
				log.Printf("Failed to end session %s: %v", prev, err)
			}
			h.log.Close(prev)
		}
	}

	sess, err := h.store.Sessions().Start(req.Label)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	if h.log != nil {
		h.log.Open(sess.ID)
	}
	log.Printf("Session started: %s", sess.ID)

	writeJSON(w, http.StatusCreated, sess)
}

// summary handles GET /api/sessions/{id} and returns the session with its
// per-kind trick counts.
func (h *SessionHandler) summary(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := h.get(w, id)
	if !ok {
		return
	}

	counts, err := h.store.Tricks().CountBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count tricks")
		return
	}

	resp := summaryResponse{Session: sess, Counts: counts}
	for kind, n := range counts {
		resp.Total += n
		if kind.Compound() {
			resp.Compound += n
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// end handles DELETE /api/sessions/{id} and ends the session.
func (h *SessionHandler) end(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().End(id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, store.ErrSessionEnded):
			writeError(w, http.StatusConflict, "Session already ended")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to end session")
		}
		return
	}

	if h.log != nil {
		h.log.Close(id)
	}
	log.Printf("Session ended: %s", id)

	writeJSON(w, http.StatusOK, sess)
}

// tricks handles GET /api/sessions/{id}/tricks and returns the tricks of
// the session in the order they occurred.
func (h *SessionHandler) tricks(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.get(w, id); !ok {
		return
	}

	records, err := h.store.Tricks().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tricks")
		return
	}

	if records == nil {
		records = []store.TrickRecord{}
	}
	writeJSON(w, http.StatusOK, listTricksResponse{Tricks: records})
}

// get loads a session, writing the error response if it fails.
func (h *SessionHandler) get(w http.ResponseWriter, id string) (*store.Session, bool) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, false
	}
	return sess, true
}
