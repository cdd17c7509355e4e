package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "server:\n  port: \"9090\"\nplay:\n  advance_delay: 1s\nprefs:\n  store: sqlite\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Play.AdvanceDelay != "1s" || cfg.Prefs.Store != "sqlite" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Play.FeedbackDelay != "2s" || cfg.Quiz.Source != "static" || cfg.Poll.InboxInterval != "10s" {
		t.Fatalf("defaults not merged: %+v", cfg)
	}
	if cfg.Play.SessionTTL != "30m" || cfg.Play.FinishedTTL != "1m" {
		t.Fatalf("session lifetimes not defaulted: %+v", cfg.Play)
	}
	if cfg.Prefs.SQLitePath != "quizwizz.db" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("defaults not merged: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDurations(t *testing.T) {
	if TTLDuration("", time.Second) != time.Second || TTLDuration("bad", time.Second) != time.Second {
		t.Fatalf("fallback not used")
	}
	if TTLDuration("0s", time.Second) != 0 {
		t.Fatalf("zero ttl should be kept")
	}
	if Duration("0s", time.Second) != time.Second || Duration("250ms", time.Second) != 250*time.Millisecond {
		t.Fatalf("unexpected Duration behaviour")
	}
}
