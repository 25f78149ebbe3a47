package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/poivr/internal/store"
	"github.com/ayusman/poivr/internal/trick"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSessionHandler_Start(t *testing.T) {
	s := setupTestStore(t)
	tl := store.NewTrickLog(s.Tricks())
	h := NewSessionHandler(s, tl)

	rec := serve(h, http.MethodPost, "/api/sessions", []byte(`{"label": "park"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var sess store.Session
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if sess.Label != "park" || sess.ID == "" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if tl.Session() != sess.ID {
		t.Errorf("expected trick log to record into %q, got %q", sess.ID, tl.Session())
	}

	// starting another session ends the first
	rec = serve(h, http.MethodPost, "/api/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	first, _ := s.Sessions().GetByID(sess.ID)
	if first.Active() {
		t.Error("expected the previous session to be ended")
	}
	if tl.Session() == sess.ID {
		t.Error("expected the trick log to move to the new session")
	}
}

func TestSessionHandler_Start_InvalidJSON(t *testing.T) {
	h := NewSessionHandler(setupTestStore(t), nil)

	rec := serve(h, http.MethodPost, "/api/sessions", []byte("{invalid"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestSessionHandler_List(t *testing.T) {
	s := setupTestStore(t)
	h := NewSessionHandler(s, nil)

	rec := serve(h, http.MethodGet, "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := rec.Body.String(); got != "{\"sessions\":[]}\n" {
		t.Errorf("expected an empty list, got %q", got)
	}

	s.Sessions().Start("a")
	s.Sessions().Start("b")

	rec = serve(h, http.MethodGet, "/api/sessions", nil)
	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(response.Sessions))
	}
}

func TestSessionHandler_SummaryAndTricks(t *testing.T) {
	s := setupTestStore(t)
	h := NewSessionHandler(s, nil)

	sess, _ := s.Sessions().Start("")
	now := time.Now()
	for _, e := range []trick.Event{
		{Kind: trick.KindRevolution, Limb: trick.LimbLeft},
		{Kind: trick.KindRevolution, Limb: trick.LimbRight},
		{Kind: trick.KindFlower, Variant: trick.VariantFlower, Limb: trick.LimbLeft},
	} {
		s.Tricks().Record(sess.ID, e, now)
	}

	rec := serve(h, http.MethodGet, "/api/sessions/"+sess.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var summary struct {
		Session  store.Session  `json:"session"`
		Counts   map[string]int `json:"counts"`
		Total    int            `json:"total"`
		Compound int            `json:"compound"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if summary.Session.ID != sess.ID {
		t.Errorf("expected session %q, got %q", sess.ID, summary.Session.ID)
	}
	if summary.Counts["REVOLUTION"] != 2 || summary.Counts["FLOWER"] != 1 {
		t.Errorf("unexpected counts: %v", summary.Counts)
	}
	if summary.Total != 3 {
		t.Errorf("expected total 3, got %d", summary.Total)
	}
	if summary.Compound != 1 {
		t.Errorf("expected 1 compound trick, got %d", summary.Compound)
	}

	rec = serve(h, http.MethodGet, "/api/sessions/"+sess.ID+"/tricks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var tricks listTricksResponse
	if err := json.NewDecoder(rec.Body).Decode(&tricks); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(tricks.Tricks) != 3 {
		t.Fatalf("expected 3 tricks, got %d", len(tricks.Tricks))
	}
	if tricks.Tricks[2].Kind != trick.KindFlower || tricks.Tricks[2].Variant != trick.VariantFlower {
		t.Errorf("unexpected last trick: %+v", tricks.Tricks[2])
	}
}

func TestSessionHandler_End(t *testing.T) {
	s := setupTestStore(t)
	tl := store.NewTrickLog(s.Tricks())
	h := NewSessionHandler(s, tl)

	sess, _ := s.Sessions().Start("")
	tl.Open(sess.ID)

	rec := serve(h, http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var ended store.Session
	json.NewDecoder(rec.Body).Decode(&ended)
	if ended.EndedAt == nil {
		t.Error("expected an end time")
	}
	if tl.Session() != "" {
		t.Error("expected the trick log to stop recording")
	}

	rec = serve(h, http.MethodDelete, "/api/sessions/"+sess.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestSessionHandler_Errors(t *testing.T) {
	h := NewSessionHandler(setupTestStore(t), nil)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"summary not found", http.MethodGet, "/api/sessions/missing", http.StatusNotFound},
		{"tricks not found", http.MethodGet, "/api/sessions/missing/tricks", http.StatusNotFound},
		{"end not found", http.MethodDelete, "/api/sessions/missing", http.StatusNotFound},
		{"unknown subresource", http.MethodGet, "/api/sessions/missing/other", http.StatusNotFound},
		{"collection method", http.MethodPut, "/api/sessions", http.StatusMethodNotAllowed},
		{"item method", http.MethodPost, "/api/sessions/missing", http.StatusMethodNotAllowed},
		{"tricks method", http.MethodDelete, "/api/sessions/missing/tricks", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, nil)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
