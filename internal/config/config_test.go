package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "BATCH_READY_THRESHOLD", "LEARNED_REPETITIONS",
		"DEFAULT_BATCH_SIZE", "ANKI_NEW_CARDS_PER_DAY", "FIVE_POINT_ALLOW_TWO", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q, want sqlite3", cfg.DBDriver)
	}
	if cfg.BatchReadyThreshold != 0.8 {
		t.Errorf("BatchReadyThreshold = %v, want 0.8", cfg.BatchReadyThreshold)
	}
	if cfg.LearnedRepetitions != 1 || cfg.DefaultBatchSize != 25 || cfg.AnkiNewCardsPerDay != 20 {
		t.Errorf("unexpected batch defaults: %+v", cfg)
	}
	if cfg.FivePointAllowTwo {
		t.Error("FivePointAllowTwo should default to false")
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("SessionIdleTimeout = %v", cfg.SessionIdleTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BATCH_READY_THRESHOLD", "0.5")
	t.Setenv("FIVE_POINT_ALLOW_TWO", "true")
	t.Setenv("STATS_CACHE_TTL", "2m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.BatchReadyThreshold != 0.5 {
		t.Errorf("BatchReadyThreshold = %v", cfg.BatchReadyThreshold)
	}
	if !cfg.FivePointAllowTwo {
		t.Error("FivePointAllowTwo should be true")
	}
	if cfg.StatsCacheTTL != 2*time.Minute {
		t.Errorf("StatsCacheTTL = %v", cfg.StatsCacheTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestNotificationHourBounds(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"0", 0},
		{"23", 23},
		{"24", 8},
		{"-1", 8},
		{"noon", 8},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("NOTIFICATION_START_HOUR", tt.value)
			if got := Load().NotificationStartHour; got != tt.want {
				t.Errorf("NotificationStartHour = %d, want %d", got, tt.want)
			}
		})
	}
}
