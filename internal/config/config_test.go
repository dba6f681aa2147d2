package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "FITGOALZ_API_URL")
	unsetEnv(t, "FITGOALZ_CREDENTIAL_STORE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.APIURL != "http://localhost:8000" {
		t.Errorf("expected default APIURL, got %s", cfg.APIURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected default RequestTimeout 30s, got %s", cfg.RequestTimeout)
	}
	if cfg.CredentialStore != StoreFile {
		t.Errorf("expected default store %q, got %q", StoreFile, cfg.CredentialStore)
	}
	if cfg.Profile != "default" {
		t.Errorf("expected default profile, got %s", cfg.Profile)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected default LogLevel 'warn', got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected default LogFormat 'text', got %s", cfg.LogFormat)
	}
}

func TestLoad_WithOverrides(t *testing.T) {
	t.Setenv("FITGOALZ_API_URL", "https://api.fitgoalz.test/")
	t.Setenv("FITGOALZ_API_PREFIX", "api/")
	t.Setenv("FITGOALZ_REQUEST_TIMEOUT", "5s")
	t.Setenv("FITGOALZ_CREDENTIAL_STORE", StoreMemory)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BaseURL() != "https://api.fitgoalz.test" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.BaseURL())
	}
	if cfg.Prefix() != "/api" {
		t.Errorf("expected prefix /api, got %s", cfg.Prefix())
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected RequestTimeout 5s, got %s", cfg.RequestTimeout)
	}
}

func TestLoad_InvalidAPIURL(t *testing.T) {
	t.Setenv("FITGOALZ_API_URL", "192.168.0.14:8000")

	_, err := Load()
	if !errors.Is(err, ErrInvalidAPIURL) {
		t.Fatalf("expected ErrInvalidAPIURL, got %v", err)
	}
}

func TestLoad_UnknownStore(t *testing.T) {
	unsetEnv(t, "FITGOALZ_API_URL")
	t.Setenv("FITGOALZ_CREDENTIAL_STORE", "keychain")

	_, err := Load()
	if !errors.Is(err, ErrUnknownStore) {
		t.Fatalf("expected ErrUnknownStore, got %v", err)
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	unsetEnv(t, "FITGOALZ_API_URL")
	t.Setenv("FITGOALZ_CREDENTIAL_STORE", StorePostgres)
	unsetEnv(t, "DATABASE_URL")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL, got nil")
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"/":        "",
		"api":      "/api",
		"/api/":    "/api",
		" /v1/x/ ": "/v1/x",
	}
	for in, want := range tests {
		if got := NormalizePrefix(in); got != want {
			t.Errorf("NormalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfig_CredentialPath(t *testing.T) {
	cfg := &Config{CredentialDir: "/tmp/fitgoalz-creds"}
	got, err := cfg.CredentialPath()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "/tmp/fitgoalz-creds" {
		t.Errorf("expected explicit dir, got %s", got)
	}

	file, err := cfg.SQLiteFile()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if file != "/tmp/fitgoalz-creds/credentials.db" {
		t.Errorf("unexpected sqlite path %s", file)
	}
}

func TestLoadStub_Defaults(t *testing.T) {
	unsetEnv(t, "APP_ENV")
	unsetEnv(t, "JWT_SECRET")

	cfg, err := LoadStub()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AppPort != 8000 {
		t.Errorf("expected default AppPort 8000, got %d", cfg.AppPort)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("expected TokenTTL 30m, got %s", cfg.TokenTTL)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("expected CORS origins [*], got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadStub_CORSOrigins(t *testing.T) {
	unsetEnv(t, "APP_ENV")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:19006,https://app.fitgoalz.dev")

	cfg, err := LoadStub()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://app.fitgoalz.dev" {
		t.Errorf("unexpected second origin %q", cfg.CORSAllowedOrigins[1])
	}
}

func TestLoadStub_ProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	unsetEnv(t, "JWT_SECRET")

	if _, err := LoadStub(); err == nil {
		t.Fatal("expected error for default secret in production, got nil")
	}
}

// unsetEnv removes a variable for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}
