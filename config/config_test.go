package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarioArnt/azure-ad-jwt-lite/discovery"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("azjwt", WithFileSystem(&mockFS{}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.Name != "azjwt" || cfg.Service.Environment != "development" {
		t.Errorf("unexpected service config %+v", cfg.Service)
	}
	v := cfg.Verifier
	if v.DiscoveryURL != discovery.DefaultURL {
		t.Errorf("expected default discovery URL, got %q", v.DiscoveryURL)
	}
	if v.MaxRetries != 2 {
		t.Errorf("expected max_retries 2, got %d", v.MaxRetries)
	}
	if v.CacheTTL != 5*time.Minute || v.HTTPTimeout != 10*time.Second || v.DisableCache {
		t.Errorf("unexpected verifier defaults %+v", v)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %q", cfg.Log.Level)
	}
	if cfg.Observability.ServiceName != "azjwt" {
		t.Errorf("expected observability service name from service, got %q", cfg.Observability.ServiceName)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
service:
  name: gateway
  environment: staging
verifier:
  discovery_url: https://login.microsoftonline.com/tenant/discovery/v2.0/keys
  max_retries: 0
  cache_ttl: 1m
  audience: api://gateway
  algorithms: [RS256]
log:
  level: debug
  format: json
`)

	cfg, err := Load("gateway", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.Environment != "staging" {
		t.Errorf("expected staging, got %q", cfg.Service.Environment)
	}
	v := cfg.Verifier
	if v.DiscoveryURL != "https://login.microsoftonline.com/tenant/discovery/v2.0/keys" {
		t.Errorf("unexpected discovery URL %q", v.DiscoveryURL)
	}
	if v.MaxRetries != 0 {
		t.Errorf("expected explicit max_retries 0 to survive, got %d", v.MaxRetries)
	}
	if v.CacheTTL != time.Minute || v.Audience != "api://gateway" {
		t.Errorf("unexpected verifier config %+v", v)
	}
	if len(v.Algorithms) != 1 || v.Algorithms[0] != "RS256" {
		t.Errorf("unexpected algorithms %v", v.Algorithms)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json log format, got %q", cfg.Log.Format)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
verifier:
  max_retries: 1
  cache_ttl: 1m
`)
	t.Setenv("VERIFIER_MAX_RETRIES", "4")
	t.Setenv("AZJWT_VERIFIER_CACHE_TTL", "30s")

	cfg, err := Load("azjwt", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verifier.MaxRetries != 4 {
		t.Errorf("expected env max_retries 4, got %d", cfg.Verifier.MaxRetries)
	}
	if cfg.Verifier.CacheTTL != 30*time.Second {
		t.Errorf("expected env cache_ttl 30s, got %v", cfg.Verifier.CacheTTL)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "AZJWT_VERIFIER_AUDIENCE=api://from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("AZJWT_VERIFIER_AUDIENCE") })

	cfg, err := Load("azjwt", WithEnvFile(envPath), WithConfigFile(filepath.Join(dir, "missing.yml")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verifier.Audience != "api://from-dotenv" {
		t.Errorf("expected audience from .env, got %q", cfg.Verifier.Audience)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{"negative retries", "verifier:\n  max_retries: -1\n", "max_retries"},
		{"bad discovery url", "verifier:\n  discovery_url: not a url\n", "discovery_url"},
		{"unsupported algorithm", "verifier:\n  algorithms: [HS256]\n", "algorithms"},
		{"bad environment", "service:\n  environment: qa\n", "environment"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yml", tc.yaml)
			_, err := Load("azjwt", WithConfigFile(path))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/azjwt/config.yml": true,
		"./.env":                 true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("azjwt", LoaderConfig{})
	if files.ConfigFile != "./cmd/azjwt/config.yml" {
		t.Errorf("expected config file at ./cmd/azjwt/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("expected env file at ./.env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"./config.yml": true}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("azjwt", LoaderConfig{ConfigFile: "/etc/azjwt.yml", EnvFile: "/etc/azjwt.env"})
	if files.ConfigFile != "/etc/azjwt.yml" || files.EnvFile != "/etc/azjwt.env" {
		t.Errorf("unexpected files %+v", files)
	}
}

func TestEnvNames(t *testing.T) {
	names := envNames("verifier.max_retries")
	if len(names) != 2 || names[0] != "AZJWT_VERIFIER_MAX_RETRIES" || names[1] != "VERIFIER_MAX_RETRIES" {
		t.Errorf("unexpected env names %v", names)
	}
}

func TestPrefixedEnvWins(t *testing.T) {
	t.Setenv("VERIFIER_AUDIENCE", "api://plain")
	t.Setenv("AZJWT_VERIFIER_AUDIENCE", "api://prefixed")

	cfg, err := Load("azjwt", WithFileSystem(&mockFS{}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verifier.Audience != "api://prefixed" {
		t.Errorf("expected prefixed variable to win, got %q", cfg.Verifier.Audience)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }
