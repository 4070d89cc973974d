package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	// Point the default location at an empty directory so a developer's real
	// config cannot leak into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreFile {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreFile)
	}
	if got := cfg.Source(SourcePyPI).MaxRequestsPerSecond; got != 10 {
		t.Errorf("pypi rate = %v, want 10", got)
	}
	if got := cfg.Source(SourceGitHub).TokenEnv; got != "GITHUB_TOKEN" {
		t.Errorf("github token env = %q, want GITHUB_TOKEN", got)
	}
	if got := cfg.Source(SourcePyPIStats).Window(); got != 30*24*time.Hour {
		t.Errorf("pypistats window = %v, want 720h", got)
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := writeConfig(t, `
store = "none"

[sources.github]
max_requests_per_second = 0.5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreNone {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreNone)
	}

	gh := cfg.Source(SourceGitHub)
	if gh.MaxRequestsPerSecond != 0.5 {
		t.Errorf("github rate = %v, want 0.5", gh.MaxRequestsPerSecond)
	}
	// Keys the file does not set keep their defaults.
	if gh.StalenessWindowDays != DefaultStalenessWindowDays {
		t.Errorf("github window days = %d, want %d", gh.StalenessWindowDays, DefaultStalenessWindowDays)
	}
	if gh.TokenEnv != "GITHUB_TOKEN" {
		t.Errorf("github token env = %q, want GITHUB_TOKEN", gh.TokenEnv)
	}
	if got := cfg.Source(SourcePyPI).MaxRequestsPerSecond; got != 10 {
		t.Errorf("pypi rate = %v, want default 10", got)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, `max_request_per_second = 5`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("expected unknown-key error, got %v", err)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for explicitly named missing config")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, `store = `)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolveToken(t *testing.T) {
	t.Setenv("REPUTE_TEST_TOKEN", "from-env")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "explicit token wins", src: Source{Token: "abc", TokenEnv: "REPUTE_TEST_TOKEN"}, want: "abc"},
		{name: "env fallback", src: Source{TokenEnv: "REPUTE_TEST_TOKEN"}, want: "from-env"},
		{name: "unset env", src: Source{TokenEnv: "REPUTE_TEST_TOKEN_UNSET"}, want: ""},
		{name: "no token", src: Source{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.ResolveToken(); got != tt.want {
				t.Errorf("ResolveToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceFallback(t *testing.T) {
	cfg := &Config{Sources: map[string]Source{}}
	if got := cfg.Source(SourcePyPI).MaxRequestsPerSecond; got != 10 {
		t.Errorf("fallback pypi rate = %v, want 10", got)
	}
	if got := cfg.Source("unknown").StalenessWindowDays; got != DefaultStalenessWindowDays {
		t.Errorf("unknown source window days = %d, want %d", got, DefaultStalenessWindowDays)
	}
}
