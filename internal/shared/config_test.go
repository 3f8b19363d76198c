package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Fetch.TimeoutSeconds != 30 {
		t.Errorf("Expected 30s request timeout, got %d", config.Fetch.TimeoutSeconds)
	}
	if config.Fetch.BadGatewayRetries != 2 {
		t.Errorf("Expected 2 bad-gateway retries, got %d", config.Fetch.BadGatewayRetries)
	}
	if config.Fetch.RateLimitRetries != 0 {
		t.Errorf("Expected unbounded rate-limit retries (0), got %d", config.Fetch.RateLimitRetries)
	}
	if config.Fetch.StaggerStepMillis != 100 {
		t.Errorf("Expected 100ms stagger step, got %d", config.Fetch.StaggerStepMillis)
	}
	if config.Export.NumWorkers != 3 {
		t.Errorf("Expected 3 export workers, got %d", config.Export.NumWorkers)
	}
	if config.Session.Path == "" {
		t.Error("Expected a default session store path")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("parses a TOML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[credentials.spotify]
client_id = "abc123"
redirect_uri = "http://localhost:9999/callback"

[fetch]
timeout_seconds = 10
bad_gateway_retries = 5
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Credentials.Spotify.ClientID != "abc123" {
			t.Errorf("Expected abc123, got %q", config.Credentials.Spotify.ClientID)
		}
		if config.Fetch.TimeoutSeconds != 10 {
			t.Errorf("Expected 10, got %d", config.Fetch.TimeoutSeconds)
		}
		if config.Fetch.BadGatewayRetries != 5 {
			t.Errorf("Expected 5, got %d", config.Fetch.BadGatewayRetries)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("Expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("malformed TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("[[[not toml"), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("environment overrides credentials", func(t *testing.T) {
		t.Setenv("SPOTIFY_ID", "env-client")
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[credentials.spotify]\nclient_id = \"file-client\"\n"), 0644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Credentials.Spotify.ClientID != "env-client" {
			t.Errorf("Expected the environment to win, got %q", config.Credentials.Spotify.ClientID)
		}
	})
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	config := DefaultConfig()
	config.Credentials.Spotify.ClientID = "saved-client"

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if reloaded.Credentials.Spotify.ClientID != "saved-client" {
		t.Errorf("Expected saved-client, got %q", reloaded.Credentials.Spotify.ClientID)
	}
}

func TestCreateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read created config: %v", err)
	}
	if !strings.Contains(string(content), "[credentials.spotify]") {
		t.Error("Expected the example config content")
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("Expected an error when the file already exists")
	}
}
