// Package main provides a keystroke plugin for macOS.
// It maps recognized tricks to keyboard shortcuts sent via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Trick is the recognized trick as sent by the plugin dispatcher.
type Trick struct {
	Kind    string `json:"kind"`
	Variant string `json:"variant,omitempty"`
	Limb    string `json:"limb"`
}

// Request represents the input from the plugin executor.
type Request struct {
	Trick   Trick           `json:"trick"`
	Session string          `json:"session,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Binding is the shortcut sent for one trick.
type Binding struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// Config maps trick kinds to shortcuts. A "KIND/variant" entry takes
// precedence over a plain "KIND" entry.
type Config struct {
	Bindings map[string]Binding `json:"bindings"`
	DryRun   bool               `json:"dry_run"` // report the script without running it
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	writeResponse(handle(req))
}

// handle sends the shortcut bound to the request's trick.
func handle(req Request) Response {
	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return Response{Error: fmt.Sprintf("failed to parse config: %v", err)}
		}
	}

	b, ok := cfg.lookup(req.Trick)
	if !ok {
		return Response{Error: fmt.Sprintf("no binding for %s", req.Trick.Kind)}
	}
	if b.Key == "" {
		return Response{Error: "key is required"}
	}

	script := buildKeystrokeScript(b.Key, b.Modifiers)
	if !cfg.DryRun {
		if err := runAppleScript(script); err != nil {
			return Response{Error: fmt.Sprintf("keystroke failed: %v", err)}
		}
	}

	data, _ := json.Marshal(map[string]string{"script": script})
	return Response{Success: true, Data: data}
}

// lookup returns the binding for t.
func (c Config) lookup(t Trick) (Binding, bool) {
	if t.Variant != "" {
		if b, ok := c.Bindings[t.Kind+"/"+t.Variant]; ok {
			return b, true
		}
	}
	b, ok := c.Bindings[t.Kind]
	return b, ok
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}

	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
		key, strings.Join(appleModifiers, ", "))
}

// writeResponse writes resp to stdout.
func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
