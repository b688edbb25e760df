package config_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobmate/offer-service/internal/config"
	"jobmate/offer-service/internal/logging"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ── Defaults and env ───────────────────────────────────────────────────────

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("OFFER_STORE", "memory")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8085" || cfg.GRPCPort != "9085" {
		t.Errorf("ports = %q/%q, want 8085/9085", cfg.Port, cfg.GRPCPort)
	}
	if cfg.Rescore.Schedule != "0 3 * * *" {
		t.Errorf("rescore schedule = %q", cfg.Rescore.Schedule)
	}
	if cfg.Gemini.Timeout != 30*time.Second {
		t.Errorf("gemini timeout = %v", cfg.Gemini.Timeout)
	}
	if cfg.Vault.Mount != "secret" {
		t.Errorf("vault mount = %q", cfg.Vault.Mount)
	}
	if len(cfg.LocationProfiles()) == 0 {
		t.Error("expected built-in location table")
	}
}

func TestLoad_PostgresRequiresURLs(t *testing.T) {
	t.Setenv("OFFER_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	_, err := config.Load("")
	if err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
	for _, want := range []string{"DATABASE_URL", "REDIS_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OFFER_STORE", "memory")
	t.Setenv("OFFER_PORT", "9000")
	t.Setenv("OFFER_RATE_LIMIT_RPS", "2.5")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %q, want 9000", cfg.Port)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("rps = %v, want 2.5", cfg.RateLimit.RequestsPerSecond)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("gemini key = %q", cfg.Gemini.APIKey)
	}
}

func TestLoad_BadCronSchedule(t *testing.T) {
	t.Setenv("OFFER_STORE", "memory")
	t.Setenv("OFFER_RESCORE_SCHEDULE", "every night")

	_, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "rescore.schedule") {
		t.Fatalf("err = %v, want rescore.schedule error", err)
	}
}

func TestLoad_UnknownStore(t *testing.T) {
	t.Setenv("OFFER_STORE", "sqlite")
	if _, err := config.Load(""); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

// ── Config file ────────────────────────────────────────────────────────────

func TestLoad_FileLocations(t *testing.T) {
	t.Setenv("OFFER_STORE", "memory")
	path := writeFile(t, t.TempDir(), "offer-service.yaml", `
port: "8099"
locations:
  - name: Lisbon
    colIndex: 0.8
    taxRate: 0.28
    aliases: [lisboa]
`)

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loader.ConfigFile() != path {
		t.Errorf("ConfigFile = %q, want %q", loader.ConfigFile(), path)
	}
	if cfg.Port != "8099" {
		t.Errorf("port = %q", cfg.Port)
	}
	locs := cfg.LocationProfiles()
	if len(locs) != 1 || locs[0].Name != "Lisbon" || locs[0].COLIndex != 0.8 || len(locs[0].Aliases) != 1 {
		t.Errorf("locations = %+v", locs)
	}
}

func TestValidate_Locations(t *testing.T) {
	cases := map[string]string{
		"missing name": "  - colIndex: 1\n    taxRate: 0.2\n",
		"zero index":   "  - name: X\n    colIndex: 0\n    taxRate: 0.2\n",
		"tax too high": "  - name: X\n    colIndex: 1\n    taxRate: 1.2\n",
		"duplicate":    "  - name: X\n    colIndex: 1\n  - name: x\n    colIndex: 1\n",
	}
	t.Setenv("OFFER_STORE", "memory")
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "offer-service.yaml", "locations:\n"+body)
			if _, err := config.Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoader_WatchReloads(t *testing.T) {
	t.Setenv("OFFER_STORE", "memory")
	dir := t.TempDir()
	path := writeFile(t, dir, "offer-service.yaml", "port: \"8100\"\n")

	loader := config.NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := make(chan *config.Config, 8)
	loader.Watch(logging.NewNop(), func(c *config.Config) { got <- c })

	writeFile(t, dir, "offer-service.yaml", "port: \"8200\"\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Port == "8200" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

// ── Vault ──────────────────────────────────────────────────────────────────

func TestLoadVaultSecrets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/offer-service" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"gemini_api_key":"g-key","adzuna_app_id":"az-id","adzuna_app_key":" "},` +
			`"metadata":{"created_time":"2026-01-01T00:00:00Z","custom_metadata":null,"deletion_time":"","destroyed":false,"version":3}}}`))
	}))
	defer srv.Close()

	cfg := &config.Config{Vault: config.VaultConfig{
		Enabled:    true,
		Address:    srv.URL,
		Token:      "root",
		Mount:      "secret",
		SecretPath: "offer-service",
	}}
	cfg.Adzuna.AppKey = "env-key"

	if err := config.LoadVaultSecrets(context.Background(), cfg, logging.NewNop()); err != nil {
		t.Fatalf("LoadVaultSecrets: %v", err)
	}
	if cfg.Gemini.APIKey != "g-key" || cfg.Adzuna.AppID != "az-id" {
		t.Errorf("secrets not applied: gemini=%q adzuna=%q", cfg.Gemini.APIKey, cfg.Adzuna.AppID)
	}
	if cfg.Adzuna.AppKey != "env-key" {
		t.Errorf("blank vault value overwrote env key: %q", cfg.Adzuna.AppKey)
	}
}

func TestLoadVaultSecrets_TokenFileAndMissingToken(t *testing.T) {
	cfg := &config.Config{Vault: config.VaultConfig{Enabled: true, Address: "http://127.0.0.1:1", Mount: "secret", SecretPath: "x"}}
	err := config.LoadVaultSecrets(context.Background(), cfg, logging.NewNop())
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("err = %v, want token error", err)
	}

	cfg.Vault.TokenFile = filepath.Join(t.TempDir(), "missing")
	if err := config.LoadVaultSecrets(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Error("expected error for unreadable token file")
	}
}

func TestLoadVaultSecrets_Disabled(t *testing.T) {
	cfg := &config.Config{}
	if err := config.LoadVaultSecrets(context.Background(), cfg, nil); err != nil {
		t.Fatalf("disabled vault: %v", err)
	}
}
