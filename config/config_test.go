package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.DeckSize != 5 {
		t.Errorf("expected DeckSize=5, got %d", cfg.DeckSize)
	}
	if cfg.RoundLimit != 3 {
		t.Errorf("expected RoundLimit=3, got %d", cfg.RoundLimit)
	}
	if cfg.MaxPlayerIDLength != 64 {
		t.Errorf("expected MaxPlayerIDLength=64, got %d", cfg.MaxPlayerIDLength)
	}
	if cfg.WSPort != 8080 {
		t.Errorf("expected WSPort=8080, got %d", cfg.WSPort)
	}
	if cfg.SnapshotMinIntervalMS != 1000 {
		t.Errorf("expected SnapshotMinIntervalMS=1000, got %d", cfg.SnapshotMinIntervalMS)
	}
	if cfg.WaitingIdleTimeoutSec != 300 {
		t.Errorf("expected WaitingIdleTimeoutSec=300, got %d", cfg.WaitingIdleTimeoutSec)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("DECK_SIZE", "7")
	os.Setenv("ROUND_LIMIT", "5")
	os.Setenv("WS_PORT", "9090")
	defer func() {
		os.Unsetenv("DECK_SIZE")
		os.Unsetenv("ROUND_LIMIT")
		os.Unsetenv("WS_PORT")
	}()

	cfg := Load()

	if cfg.DeckSize != 7 {
		t.Errorf("expected DeckSize=7 after env override, got %d", cfg.DeckSize)
	}
	if cfg.RoundLimit != 5 {
		t.Errorf("expected RoundLimit=5 after env override, got %d", cfg.RoundLimit)
	}
	if cfg.WSPort != 9090 {
		t.Errorf("expected WSPort=9090 after env override, got %d", cfg.WSPort)
	}
	// Non-overridden fields should remain default
	if cfg.SnapshotMinIntervalMS != 1000 {
		t.Errorf("expected SnapshotMinIntervalMS=1000 (default), got %d", cfg.SnapshotMinIntervalMS)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	os.Setenv("DECK_SIZE", "invalid")
	defer os.Unsetenv("DECK_SIZE")

	cfg := Load()

	// Should fall back to default when env value is invalid
	if cfg.DeckSize != 5 {
		t.Errorf("expected DeckSize=5 (default) with invalid env, got %d", cfg.DeckSize)
	}
}
