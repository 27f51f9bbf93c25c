package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv isolates a test from the caller's SPHEREMAP_* variables
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfigPath, EnvAPIURL, EnvToken, EnvOrgID} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Canvas.Width != 1280 || cfg.Canvas.Height != 720 {
		t.Errorf("Canvas = %gx%g, want 1280x720", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Layout.Mode != "saved" {
		t.Errorf("Layout.Mode = %s, want saved", cfg.Layout.Mode)
	}
	if cfg.Refresh.Interval != 0 {
		t.Errorf("Refresh.Interval = %s, want polling disabled", cfg.Refresh.Interval.Duration())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
api:
  base_url: https://maps.example.com
  timeout: 5s
organization_id: 42
layout:
  mode: Radial
refresh:
  interval: 30s
import:
  watch_file: ./map.yaml
`)

	cfg, got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if got != path {
		t.Errorf("path = %s, want %s", got, path)
	}
	if cfg.API.BaseURL != "https://maps.example.com" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Duration() != 5*time.Second {
		t.Errorf("API.Timeout = %s, want 5s", cfg.API.Timeout.Duration())
	}
	if cfg.OrganizationID != 42 {
		t.Errorf("OrganizationID = %d, want 42", cfg.OrganizationID)
	}
	if cfg.Layout.Mode != "radial" {
		t.Errorf("Layout.Mode = %s, want radial", cfg.Layout.Mode)
	}
	if cfg.Refresh.Interval.Duration() != 30*time.Second {
		t.Errorf("Refresh.Interval = %s, want 30s", cfg.Refresh.Interval.Duration())
	}
	if cfg.Import.WatchFile != "./map.yaml" {
		t.Errorf("Import.WatchFile = %s", cfg.Import.WatchFile)
	}

	// Missing fields fall back to defaults
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %s, want %s", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Canvas.Width != DefaultWidth {
		t.Errorf("Canvas.Width = %g, want %d", cfg.Canvas.Width, DefaultWidth)
	}
	if cfg.Snapshot.Path != "" {
		t.Errorf("Snapshot.Path = %s, want disabled", cfg.Snapshot.Path)
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "api: [", "parse config"},
		{"bad duration", "refresh:\n  interval: soon\n", "parse config"},
		{"bad layout", "layout:\n  mode: spiral\n", "Layout.Mode"},
		{"bad url", "api:\n  base_url: not a url\n", "BaseURL"},
		{"negative org", "organization_id: -1\n", "OrganizationID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			writeFile(t, path, tt.content)

			_, _, err := LoadFromPath(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := LoadFromPath(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "api:\n  base_url: http://file.example\norganization_id: 1\n")

	t.Setenv(EnvAPIURL, "http://env.example")
	t.Setenv(EnvToken, " secret ")
	t.Setenv(EnvOrgID, "9")

	cfg, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example" {
		t.Errorf("API.BaseURL = %s, want env value", cfg.API.BaseURL)
	}
	if cfg.API.Token != "secret" {
		t.Errorf("API.Token = %q, want trimmed env value", cfg.API.Token)
	}
	if cfg.OrganizationID != 9 {
		t.Errorf("OrganizationID = %d, want 9", cfg.OrganizationID)
	}

	t.Setenv(EnvOrgID, "nine")
	if _, _, err := LoadFromPath(path); err == nil {
		t.Error("non-integer organization id should fail")
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.OrganizationID = 3
	cfg.Refresh.Interval = Duration(time.Minute)
	cfg.Layout.Mode = "grid"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if loaded.OrganizationID != 3 {
		t.Errorf("OrganizationID = %d, want 3", loaded.OrganizationID)
	}
	if loaded.Refresh.Interval.Duration() != time.Minute {
		t.Errorf("Refresh.Interval = %s, want 1m", loaded.Refresh.Interval.Duration())
	}
	if loaded.Layout.Mode != "grid" {
		t.Errorf("Layout.Mode = %s, want grid", loaded.Layout.Mode)
	}
	if loaded.Snapshot.Path != DefaultSnapshot {
		t.Errorf("Snapshot.Path = %s, want %s", loaded.Snapshot.Path, DefaultSnapshot)
	}
}

func TestFindConfigPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if found := FindConfigPath(); found != "" {
		t.Fatalf("FindConfigPath() = %s, want none", found)
	}

	writeFile(t, filepath.Join(tmpDir, ConfigFileName), "version: 1\n")
	found := FindConfigPath()
	if filepath.Base(found) != ConfigFileName || !filepath.IsAbs(found) {
		t.Errorf("FindConfigPath() = %s, want absolute ./%s", found, ConfigFileName)
	}

	// Explicit path wins when it exists
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	writeFile(t, explicit, "version: 1\n")
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}

	// Missing explicit path falls back
	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	if found := FindConfigPath(); filepath.Base(found) != ConfigFileName {
		t.Errorf("FindConfigPath() = %s, should fall back to working directory", found)
	}
}

func TestSearchPathsOrder(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/a.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/u")

	want := []string{
		"/tmp/a.yaml",
		ConfigFileName,
		"/xdg/spheremap/config.yaml",
		"/home/u/.config/spheremap/config.yaml",
		"/etc/spheremap/config.yaml",
	}
	got := SearchPaths()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SearchPaths() = %v, want %v", got, want)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv(EnvOrgID, "5")

	cfg, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %s, want none", path)
	}
	if cfg.OrganizationID != 5 {
		t.Errorf("OrganizationID = %d, want env override 5", cfg.OrganizationID)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Import.WatchFile = "map.yaml"
	s := cfg.Summary()
	for _, want := range []string{DefaultBaseURL, "1280x720", "on demand", "map.yaml"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary() missing %q:\n%s", want, s)
		}
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}
