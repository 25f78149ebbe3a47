package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/poivr/internal/plugin"
	"github.com/ayusman/poivr/internal/trick"
)

// PluginHandler lists the discovered trick plugins.
type PluginHandler struct {
	manager *plugin.Manager
}

// NewPluginHandler creates a new PluginHandler over m.
func NewPluginHandler(m *plugin.Manager) *PluginHandler {
	return &PluginHandler{manager: m}
}

type pluginResponse struct {
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Tricks      []trick.Kind `json:"tricks"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

func toPluginResponse(p *plugin.Plugin) pluginResponse {
	tricks := p.Manifest.Tricks
	if len(tricks) == 0 {
		tricks = trick.Kinds()
	}
	return pluginResponse{
		Name:        p.Manifest.Name,
		Version:     p.Manifest.Version,
		Description: p.Manifest.Description,
		Tricks:      tricks,
	}
}

// ServeHTTP handles GET /api/plugins, GET /api/plugins/{name} and
// POST /api/plugins, which rescans the plugin directory.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/plugins"), "/")

	if name != "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		p, err := h.manager.Get(name)
		if err != nil {
			if errors.Is(err, plugin.ErrPluginNotFound) {
				writeError(w, http.StatusNotFound, "Plugin not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to get plugin")
			return
		}
		writeJSON(w, http.StatusOK, toPluginResponse(p))
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.manager.Discover(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to discover plugins")
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := listPluginsResponse{Plugins: []pluginResponse{}}
	for _, p := range h.manager.List() {
		response.Plugins = append(response.Plugins, toPluginResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}
