package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Errorf("unexpected default broker: %s", cfg.MQTTBroker)
	}
	if cfg.LivenessThreshold != 10*time.Second {
		t.Errorf("unexpected default liveness threshold: %s", cfg.LivenessThreshold)
	}
	if cfg.MonitorInterval != 2*time.Second {
		t.Errorf("unexpected default monitor interval: %s", cfg.MonitorInterval)
	}
	if cfg.ArchiveEnabled {
		t.Error("archive should default to disabled")
	}
	if cfg.BatchQueueSize != 100 {
		t.Errorf("unexpected default batch queue size: %d", cfg.BatchQueueSize)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("TEAM_ID", "team42")
	t.Setenv("LIVENESS_THRESHOLD", "30s")
	t.Setenv("MONITOR_INTERVAL", "500ms")
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("BATCH_QUEUE_SIZE", "250")

	cfg := Load()

	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Errorf("unexpected broker: %s", cfg.MQTTBroker)
	}
	if cfg.TeamID != "team42" {
		t.Errorf("unexpected team: %s", cfg.TeamID)
	}
	if cfg.LivenessThreshold != 30*time.Second {
		t.Errorf("unexpected liveness threshold: %s", cfg.LivenessThreshold)
	}
	if cfg.MonitorInterval != 500*time.Millisecond {
		t.Errorf("unexpected monitor interval: %s", cfg.MonitorInterval)
	}
	if !cfg.ArchiveEnabled {
		t.Error("expected archive enabled")
	}
	if cfg.BatchQueueSize != 250 {
		t.Errorf("unexpected batch queue size: %d", cfg.BatchQueueSize)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("LIVENESS_THRESHOLD", "soon")
	t.Setenv("BATCH_QUEUE_SIZE", "many")
	t.Setenv("ARCHIVE_ENABLED", "maybe")

	cfg := Load()

	if cfg.LivenessThreshold != 10*time.Second {
		t.Errorf("expected fallback threshold, got %s", cfg.LivenessThreshold)
	}
	if cfg.BatchQueueSize != 100 {
		t.Errorf("expected fallback queue size, got %d", cfg.BatchQueueSize)
	}
	if cfg.ArchiveEnabled {
		t.Error("expected fallback to disabled archive")
	}
}
