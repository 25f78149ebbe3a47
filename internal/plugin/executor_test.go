package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/poivr/internal/trick"
)

// scriptPlugin writes a shell script plugin into a temporary directory.
func scriptPlugin(t *testing.T, name, script string) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "test-plugin", `echo '{"success":true,"data":{"message":"hello world"}}'
`)

	request := &Request{Trick: trick.Event{Kind: trick.KindFlower, Limb: trick.LimbLeft}}

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo-plugin", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	request := &Request{
		Trick:   trick.Event{Kind: trick.KindFlower, Variant: trick.VariantAntiFlower, Limb: trick.LimbRight},
		Session: "session-1",
		Config:  json.RawMessage(`{"setting":"enabled"}`),
	}

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, request)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	if data.Received.Trick != request.Trick {
		t.Errorf("expected trick %s, got %s", request.Trick, data.Received.Trick)
	}
	if data.Received.Session != "session-1" {
		t.Errorf("expected session 'session-1', got %q", data.Received.Session)
	}
	if string(data.Received.Config) != `{"setting":"enabled"}` {
		t.Errorf("expected config to be passed through, got %s", data.Received.Config)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", `sleep 10
echo '{"success":true}'
`)

	_, err := NewExecutor(100).Execute(context.Background(), plugin, &Request{})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout-related error, got: %v", err)
	}
}

func TestExecutor_Cancelled(t *testing.T) {
	plugin := scriptPlugin(t, "slow-plugin", `sleep 10
echo '{"success":true}'
`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewExecutor(5000).Execute(ctx, plugin, &Request{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr bool
		message string
	}{
		{"error response", `echo '{"success":false,"error":"something went wrong"}'` + "\n", false, "something went wrong"},
		{"invalid json", "echo 'not valid json'\n", true, ""},
		{"non-zero exit", "echo 'Error: something failed' >&2\nexit 1\n", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := scriptPlugin(t, "fail-plugin", tt.script)

			response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute() failed: %v", err)
			}
			if response.Success {
				t.Errorf("expected success=false, got true")
			}
			if response.Error != tt.message {
				t.Errorf("expected error %q, got %q", tt.message, response.Error)
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3000)
	if executor.timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", executor.timeout)
	}
}
