package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != DefaultConfig().API.BaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if !cfg.API.StaleGuard {
		t.Error("stale guard should default on")
	}
	if cfg.API.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %s", cfg.API.Timeout())
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "cfg", "config.toml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://localhost:5000"
	cfg.API.TimeoutSec = 0
	cfg.API.LegacyUpdatePath = true
	cfg.Appearance.Theme = "tokyo-night"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.API.BaseURL != "http://localhost:5000" || !got.API.LegacyUpdatePath {
		t.Errorf("API = %+v", got.API)
	}
	if got.API.Timeout() != 0 {
		t.Errorf("Timeout = %s, want disabled", got.API.Timeout())
	}
	if got.Appearance.Theme != "tokyo-night" {
		t.Errorf("Theme = %q", got.Appearance.Theme)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"http://file\"\n[log]\nlevel = \"info\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIURL, "http://env")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://env" {
		t.Errorf("BaseURL = %q, want env override", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Watch.IntervalSec != 30 {
		t.Errorf("unset sections keep defaults, got interval %d", cfg.Watch.IntervalSec)
	}
}

func TestLoadFrom_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("HBUDGET_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HBUDGET_TEST_DOTENV", "")
	os.Unsetenv("HBUDGET_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("HBUDGET_TEST_DOTENV"); got != "from-file" {
		t.Errorf("HBUDGET_TEST_DOTENV = %q", got)
	}
}

func TestReadFrom_IgnoresEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"http://file\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIURL, "http://env")

	cfg, err := ReadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://file" {
		t.Errorf("BaseURL = %q, want file value", cfg.API.BaseURL)
	}
}
