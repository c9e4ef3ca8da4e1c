package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("SKATE_REDIS_ADDR", "redis:6380")
	path := writeConfig(t, `
server:
  port: 9090
log:
  level: debug
redis:
  addr: ${SKATE_REDIS_ADDR}
game:
  word: grind
  power_up_grant_chance: 0
kafka:
  enabled: true
  batch_timeout: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Redis.Addr != "redis:6380" || cfg.Redis.StateKey != "skate:game:state" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Fatalf("log level = %v", cfg.Log.SlogLevel())
	}
	if !cfg.Kafka.Enabled || cfg.Kafka.BatchTimeout != 2*time.Second || cfg.Kafka.Topic != "skate-intents" {
		t.Fatalf("kafka = %+v", cfg.Kafka)
	}

	s := cfg.Game.Settings()
	if s.Word != "GRIND" || s.WordLength != 5 {
		t.Fatalf("settings = %+v", s)
	}
	if s.PowerUpGrantChance != 0 {
		t.Fatalf("explicit zero chance overwritten: %v", s.PowerUpGrantChance)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, err := Load(writeConfig(t, "server: [not, a, map")); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Checkpoint.Enabled || cfg.Checkpoint.Interval != time.Minute {
		t.Fatalf("checkpoint = %+v", cfg.Checkpoint)
	}
	if cfg.Game.MaxPlayers != domain.MaxPlayers {
		t.Fatalf("max players = %d", cfg.Game.MaxPlayers)
	}
	if got := cfg.Game.Settings(); got != domain.DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Fatalf("log level = %v", cfg.Log.SlogLevel())
	}
}
