// Package plugin discovers external trick handlers and runs them when the
// tricks they subscribe to are recognized.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/poivr/internal/trick"
)

// Manifest describes a plugin's metadata and the tricks it reacts to.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Tricks      []trick.Kind    `json:"tricks"`           // empty reacts to every trick
	Config      json.RawMessage `json:"config,omitempty"` // passed through on every request
}

// Handles reports whether the plugin reacts to kind.
func (m *Manifest) Handles(kind trick.Kind) bool {
	return len(m.Tricks) == 0 || slices.Contains(m.Tricks, kind)
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Trick   trick.Event     `json:"trick"`
	Session string          `json:"session,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
