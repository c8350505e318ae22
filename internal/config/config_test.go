package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"
)

// resetFlagSet installs a fresh FlagSet before each NewConfig call so the
// same flags are not registered twice between tests.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flag.CommandLine.SetOutput(os.Stderr)
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	t.Setenv("STORE_DIR", "")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("ENABLE_HTTPS", "")
	t.Setenv("REMOTE_KIND", "")
	t.Setenv("CLIENT_DB_PATH", "")
	t.Setenv("JOURNAL_PATH", "")
	t.Setenv("SYNC_INTERVAL", "")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.AuthSecret != "dev-secret-key" {
		t.Fatalf("AuthSecret default expected 'dev-secret-key', got %q", cfg.AuthSecret)
	}
	if cfg.RemoteKind != "webdav" {
		t.Fatalf("RemoteKind default expected 'webdav', got %q", cfg.RemoteKind)
	}
	if cfg.SyncInterval != 5*time.Minute {
		t.Fatalf("SyncInterval default expected 5m, got %s", cfg.SyncInterval)
	}
	if cfg.BaseURL != "localhost:8081" {
		t.Fatalf("BaseURL default expected 'localhost:8081', got %q", cfg.BaseURL)
	}
	if cfg.ServerURL != "http://localhost:8081" {
		t.Fatalf("ServerURL default expected 'http://localhost:8081', got %q", cfg.ServerURL)
	}
	if cfg.ClientDBPath == "" || cfg.JournalPath == "" {
		t.Fatalf("client defaults must be non-empty: ClientDBPath=%q, JournalPath=%q", cfg.ClientDBPath, cfg.JournalPath)
	}
}

func TestNewConfig_BaseURLAndHTTPS(t *testing.T) {
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("AUTH_SECRET", "top")
	t.Setenv("REMOTE_KIND", "cloud-drive")
	t.Setenv("SYNC_INTERVAL", "30s")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "example.com:443" {
		t.Fatalf("BaseURL expected 'example.com:443', got %q", cfg.BaseURL)
	}
	if cfg.ServerURL != "https://example.com:443" {
		t.Fatalf("ServerURL expected 'https://example.com:443', got %q", cfg.ServerURL)
	}
	if cfg.AuthSecret != "top" {
		t.Fatalf("AuthSecret expected from env 'top', got %q", cfg.AuthSecret)
	}
	if cfg.RemoteKind != "cloud-drive" {
		t.Fatalf("RemoteKind expected 'cloud-drive', got %q", cfg.RemoteKind)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("SyncInterval expected 30s, got %s", cfg.SyncInterval)
	}
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	// A BASE_URL with a scheme is invalid and must fall back.
	t.Setenv("BASE_URL", "http://bad:8080")
	t.Setenv("ENABLE_HTTPS", "false")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "localhost:8081" {
		t.Fatalf("invalid BASE_URL must fallback to 'localhost:8081', got %q", cfg.BaseURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://localhost:8081") {
		t.Fatalf("ServerURL must reflect fallback base, got %q", cfg.ServerURL)
	}
}
