package config

import (
	"testing"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/schedule"
)

func TestLoadCatalogDefaults(t *testing.T) {
	for _, k := range []string{"SLOT_OPEN", "SLOT_CLOSE", "SLOT_DURATION", "SLOT_GAP"} {
		t.Setenv(k, "")
	}
	if got, want := LoadCatalog(), schedule.DefaultCatalog(); got != want {
		t.Fatalf("LoadCatalog() = %+v, want %+v", got, want)
	}
}

func TestLoadCatalogOverrides(t *testing.T) {
	t.Setenv("SLOT_OPEN", "12:00")
	t.Setenv("SLOT_CLOSE", "20:00")
	t.Setenv("SLOT_DURATION", "60m")
	t.Setenv("SLOT_GAP", "0s")
	cat := LoadCatalog()
	if cat.Open != model.MustTimeOfDay("12:00") || cat.Close != model.MustTimeOfDay("20:00") {
		t.Fatalf("unexpected hours: %+v", cat)
	}
	if cat.Duration != time.Hour || cat.Gap != 0 {
		t.Fatalf("unexpected spacing: %+v", cat)
	}
	if n := len(cat.Generate()); n != 8 {
		t.Fatalf("expected 8 slots, got %d", n)
	}
}

func TestLoadConfigMemoryStore(t *testing.T) {
	env := map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "STORE": "memory",
		"JWT_SECRET": "s", "ACCESS_TOKEN_TTL_MIN": "15", "REFRESH_TOKEN_TTL_DAYS": "7", "BCRYPT_COST": "4",
		"EVENT_SINK": "none", "CONFLICT_BOUNDARY": "half_open", "KAFKA_BROKERS": "k1:9092, k2:9092",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
	c := Load()
	if c.Store != StoreMemory || c.EventSink != SinkNone {
		t.Fatalf("unexpected store/sink: %q %q", c.Store, c.EventSink)
	}
	if c.ConflictBoundary != schedule.HalfOpen {
		t.Fatalf("boundary = %v", c.ConflictBoundary)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", c.KafkaBrokers)
	}
	if c.FeedbackTokenTTL != 72*time.Hour || c.EditCutoff != 30*time.Minute {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{RefillInterval: 2 * time.Second}.normalize()
	if c.Capacity != 1 || c.RefillTokens != 1 || c.TTL != 10*time.Second {
		t.Fatalf("normalize = %+v", c)
	}
}
