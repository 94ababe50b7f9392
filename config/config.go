package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds all configurable server and game parameters.
type Config struct {
	DeckSize              int `json:"deck_size"`
	RoundLimit            int `json:"round_limit"`
	MaxPlayerIDLength     int `json:"max_player_id_length"`
	WSPort                int `json:"ws_port"`
	SnapshotMinIntervalMS int `json:"snapshot_min_interval_ms"`
	WaitingIdleTimeoutSec int `json:"waiting_idle_timeout_sec"`

	// CardsFile optionally points to a JSON card catalog that replaces the
	// built-in card set.
	CardsFile string `json:"cards_file"`

	// DatabaseURL enables the Postgres session mirror when set. Empty means
	// the server runs memory-only.
	DatabaseURL string `json:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		DeckSize:              5,
		RoundLimit:            3,
		MaxPlayerIDLength:     64,
		WSPort:                8080,
		SnapshotMinIntervalMS: 1000,
		WaitingIdleTimeoutSec: 300,
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	// Try to load from config.json
	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	// Environment variable overrides
	overrideInt(&cfg.DeckSize, "DECK_SIZE")
	overrideInt(&cfg.RoundLimit, "ROUND_LIMIT")
	overrideInt(&cfg.MaxPlayerIDLength, "MAX_PLAYER_ID_LENGTH")
	overrideInt(&cfg.WSPort, "WS_PORT")
	overrideInt(&cfg.SnapshotMinIntervalMS, "SNAPSHOT_MIN_INTERVAL_MS")
	overrideInt(&cfg.WaitingIdleTimeoutSec, "WAITING_IDLE_TIMEOUT_SEC")
	overrideString(&cfg.CardsFile, "CARDS_FILE")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
