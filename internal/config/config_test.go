package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timezone != "Asia/Seoul" || cfg.NowTickCron != "@every 1m" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
timezone: Europe/Berlin
feeds:
  - url: https://example.com/team.ics
    name: team
    assignee: ana
users:
  - id: ana
    color: "#ff8800"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.RefreshCron != "*/15 * * * *" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Feeds[0].ID != "team" || cfg.Feeds[0].Assignee != "ana" {
		t.Fatalf("unexpected feed: %+v", cfg.Feeds[0])
	}
	if cfg.Users[0].DisplayColor != "#ff8800" {
		t.Fatalf("unexpected user: %+v", cfg.Users[0])
	}
	if cfg.Clock().Location().String() != "Europe/Berlin" {
		t.Fatalf("unexpected location %s", cfg.Clock().Location())
	}
	if cfg.Capture.URL != "http://127.0.0.1:8080/calendar" {
		t.Fatalf("unexpected capture url %s", cfg.Capture.URL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "America/New_York"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Timezone != "America/New_York" || loaded.BasicAuth == nil || loaded.BasicAuth.Password != "p" {
		t.Fatalf("unexpected round trip: %+v", loaded)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	if loc := cfg.Clock().Location(); loc.String() != "UTC" {
		t.Fatalf("expected UTC fallback, got %s", loc)
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
