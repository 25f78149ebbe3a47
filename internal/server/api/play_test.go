package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ayusman/poivr/internal/app"
	"github.com/ayusman/poivr/internal/config"
)

func TestPlayHandler(t *testing.T) {
	a := app.New(config.DefaultRecognition())
	h := NewPlayHandler(a)

	a.Tick(app.Frame{DeltaTime: 0.1, Active: true})

	rec := serve(h, http.MethodGet, "/api/play", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var state playResponse
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !state.Enabled {
		t.Error("expected recognition enabled")
	}
	if len(state.Timelines.LeftPoi) != 1 {
		t.Errorf("expected one rest on the left poi timeline, got %d", len(state.Timelines.LeftPoi))
	}

	rec = serve(h, http.MethodPut, "/api/play", []byte(`{"enabled": false, "reset": true}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	json.NewDecoder(rec.Body).Decode(&state)
	if state.Enabled || a.IsEnabled() {
		t.Error("expected recognition disabled")
	}
	if len(state.Timelines.LeftPoi) != 0 {
		t.Error("expected timelines cleared by reset")
	}
}

func TestPlayHandler_Errors(t *testing.T) {
	h := NewPlayHandler(app.New(config.DefaultRecognition()))

	if rec := serve(h, http.MethodPut, "/api/play", []byte("nope")); rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/api/play", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
