package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/poivr/internal/app"
	"github.com/ayusman/poivr/internal/primitive"
)

// PlayHandler exposes the live recognition state of an App.
type PlayHandler struct {
	app *app.App
}

// NewPlayHandler creates a new PlayHandler for a.
func NewPlayHandler(a *app.App) *PlayHandler {
	return &PlayHandler{app: a}
}

type playResponse struct {
	Enabled   bool            `json:"enabled"`
	Running   bool            `json:"running"`
	Left      primitive.State `json:"left"`
	Right     primitive.State `json:"right"`
	Timelines app.Timelines   `json:"timelines"`
}

type playRequest struct {
	Enabled *bool `json:"enabled"`
	Reset   bool  `json:"reset"`
}

// ServeHTTP handles GET /api/play, which reports classifier state and the
// gesture timelines, and PUT /api/play, which toggles recognition or clears
// its state.
func (h *PlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req playRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled != nil {
			h.app.SetEnabled(*req.Enabled)
		}
		if req.Reset {
			h.app.Reset()
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	left, right := h.app.States()
	writeJSON(w, http.StatusOK, playResponse{
		Enabled:   h.app.IsEnabled(),
		Running:   h.app.Running(),
		Left:      left,
		Right:     right,
		Timelines: h.app.Timelines(),
	})
}
