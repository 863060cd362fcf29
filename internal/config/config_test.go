package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
server:
  address: ":9090"
database:
  uri: "mongodb://db.example.com:27017"
  name: "openlift_test"
  remote_timeout: "3s"
cache:
  path: "/tmp/sessions-test.db"
archive:
  enabled: true
  endpoint: "http://minio:9000"
  region: "eu-central-1"
  bucket_name: "session-archives"
jwt:
  secret: "test-secret"
  expiration: "12h"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestLoadDefaults verifies a missing config file falls back to defaults
// instead of failing; the local-first app must boot without any file.
func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("server.address = %q, want %q", cfg.Server.Address, ":8080")
	}
	if cfg.Database.RemoteTimeout != 10*time.Second {
		t.Errorf("database.remote_timeout = %v, want 10s", cfg.Database.RemoteTimeout)
	}
	if cfg.Cache.Path != "sessions.db" {
		t.Errorf("cache.path = %q, want %q", cfg.Cache.Path, "sessions.db")
	}
	if cfg.Archive.Enabled {
		t.Error("archive should be disabled by default")
	}
	if cfg.JWT.Expiration != 24*time.Hour {
		t.Errorf("jwt.expiration = %v, want 24h", cfg.JWT.Expiration)
	}
}

// TestLoadFromFile verifies a well-formed YAML config loads with all
// sections populated.
func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadConfig(writeTempConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("server.address = %q, want %q", cfg.Server.Address, ":9090")
	}
	if cfg.Database.URI != "mongodb://db.example.com:27017" {
		t.Errorf("database.uri = %q", cfg.Database.URI)
	}
	if cfg.Database.Name != "openlift_test" {
		t.Errorf("database.name = %q, want %q", cfg.Database.Name, "openlift_test")
	}
	if cfg.Database.RemoteTimeout != 3*time.Second {
		t.Errorf("database.remote_timeout = %v, want 3s", cfg.Database.RemoteTimeout)
	}
	if !cfg.Archive.Enabled || cfg.Archive.BucketName != "session-archives" {
		t.Error("archive section not loaded")
	}
	if cfg.JWT.Secret != "test-secret" {
		t.Errorf("jwt.secret = %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiration != 12*time.Hour {
		t.Errorf("jwt.expiration = %v, want 12h", cfg.JWT.Expiration)
	}
}

// TestEnvOverride verifies environment variables beat file values, the way
// production deployments configure the server.
func TestEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_NAME", "env-db")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(writeTempConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Name != "env-db" {
		t.Errorf("database.name = %q, want %q", cfg.Database.Name, "env-db")
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("jwt.secret = %q, want %q", cfg.JWT.Secret, "env-secret")
	}
	// Untouched fields keep the file values.
	if cfg.Server.Address != ":9090" {
		t.Errorf("server.address = %q, want %q", cfg.Server.Address, ":9090")
	}
}
