package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/physai/textbook-backend/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Addr:            ":8080",
		JWTSecret:       "strongsecret",
		APITimeout:      5 * time.Second,
		DatabasePath:    "textbook.db",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Query:           config.QueryConfig{Model: "m"},
		Retrieval:       config.RetrievalConfig{BaseURL: "http://localhost:6333"},
	}
}

func TestValidate_InsecureJWT_FailsWhenNotDevelopment(t *testing.T) {
	os.Setenv("TEXTBOOK_ENV", "production")
	defer os.Unsetenv("TEXTBOOK_ENV")

	cfg := baseConfig()
	cfg.JWTSecret = "supersecretkey"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for insecure JWT in non-development env")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	os.Setenv("TEXTBOOK_ENV", "development")
	defer os.Unsetenv("TEXTBOOK_ENV")

	cfg := baseConfig()
	cfg.JWTSecret = "supersecretkey"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_MissingQueryModel(t *testing.T) {
	cfg := baseConfig()
	cfg.Query.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail when query.model is empty")
	}
}

func TestValidate_MissingRetrievalURL(t *testing.T) {
	cfg := baseConfig()
	cfg.Retrieval.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail when retrieval.base_url is empty")
	}
}

func TestValidate_NonPositiveTTL(t *testing.T) {
	cfg := baseConfig()
	cfg.AccessTokenTTL = 0

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to fail for zero access token TTL")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Ensure environment does not interfere
	_ = os.Unsetenv("TEXTBOOK_ADDR")
	_ = os.Unsetenv("TEXTBOOK_JWT_SECRET")
	_ = os.Unsetenv("TEXTBOOK_DATABASE_PATH")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabasePath != "textbook.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "textbook.db")
	}
	if cfg.APITimeout != 15*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 15*time.Second)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected AccessTokenTTL: got %v want %v", cfg.AccessTokenTTL, 15*time.Minute)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected RefreshTokenTTL: got %v want %v", cfg.RefreshTokenTTL, 7*24*time.Hour)
	}
	if cfg.Query.Model == "" {
		t.Fatalf("expected Query.Model default to be populated")
	}
	if cfg.Retrieval.BaseURL == "" || cfg.Ollama.BaseURL == "" {
		t.Fatalf("expected collaborator base URLs to be populated")
	}
	if cfg.Ollama.Timeout <= 0 {
		t.Fatalf("expected Ollama.Timeout to be > 0")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	// Create a temp YAML file with overrides
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	content := []byte("addr: \":9090\"\njwt_secret: \"filekey\"\ntimeout: \"30s\"\ndatabase_path: \"test.db\"\naccess_token_ttl: \"30m\"\nmax_sessions: 4\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.JWTSecret != "filekey" {
		t.Fatalf("unexpected JWTSecret: got %q want %q", cfg.JWTSecret, "filekey")
	}
	if cfg.DatabasePath != "test.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "test.db")
	}
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("unexpected APITimeout: got %v want %v", cfg.APITimeout, 30*time.Second)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("unexpected AccessTokenTTL: got %v want %v", cfg.AccessTokenTTL, 30*time.Minute)
	}
	if cfg.MaxSessions != 4 {
		t.Fatalf("unexpected MaxSessions: got %d want 4", cfg.MaxSessions)
	}
	// fields absent from the file keep their defaults
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected RefreshTokenTTL: got %v", cfg.RefreshTokenTTL)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	f, err := os.CreateTemp("", "bad-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	if err := os.WriteFile(f.Name(), []byte("::: not yaml :::"), 0o600); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Fatalf("expected YAML decode error, got nil")
	}
}
