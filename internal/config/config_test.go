package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		UpstreamURL:            "https://collector.internal/v1/ingest",
		ServerPort:             8080,
		SchedulerMode:          "pool",
		JobQueueSize:           100,
		SemaphoreMaxConcurrent: 100,
		ConnectTimeoutSeconds:  10,
		RequestTimeoutSeconds:  120,
		MaxRequestSizeMB:       1,
		ShutdownDrainSeconds:   2,
		ShutdownTimeoutSeconds: 10,
	}
}

// TestConfig_Validate_RequiresUpstreamURL verifies the one mandatory field
func TestConfig_Validate_RequiresUpstreamURL(t *testing.T) {
	cfg := validConfig()
	cfg.UpstreamURL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation to fail without upstream_url")
	}
	if !strings.Contains(err.Error(), "upstream_url") {
		t.Errorf("expected error to name upstream_url, got %v", err)
	}
}

// TestConfig_Validate_NormalizesSchedulerMode verifies unknown modes fall
// back to pool
func TestConfig_Validate_NormalizesSchedulerMode(t *testing.T) {
	for _, mode := range []string{"", "pool", "semaphore", "bogus"} {
		cfg := validConfig()
		cfg.SchedulerMode = mode

		if err := cfg.Validate(); err != nil {
			t.Fatalf("mode %q: unexpected validation error: %v", mode, err)
		}

		want := mode
		if mode == "" || mode == "bogus" {
			want = "pool"
		}
		if cfg.SchedulerMode != want {
			t.Errorf("mode %q: expected normalized mode %q, got %q", mode, want, cfg.SchedulerMode)
		}
	}
}

// TestConfig_Validate_TimeoutOrdering verifies the overall bound must
// exceed the connect bound
func TestConfig_Validate_TimeoutOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.ConnectTimeoutSeconds = 30
	cfg.RequestTimeoutSeconds = 30

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to fail when request timeout does not exceed connect timeout")
	}

	cfg.RequestTimeoutSeconds = 31
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

// TestConfig_Validate_RejectsNonPositiveConnectTimeout verifies the connect
// bound must be finite and positive
func TestConfig_Validate_RejectsNonPositiveConnectTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.ConnectTimeoutSeconds = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to fail for zero connect timeout")
	}
}

// TestConfig_Validate_DefaultsSemaphoreMaxConcurrent verifies non-positive
// semaphore bounds are replaced
func TestConfig_Validate_DefaultsSemaphoreMaxConcurrent(t *testing.T) {
	cfg := validConfig()
	cfg.SemaphoreMaxConcurrent = -1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cfg.SemaphoreMaxConcurrent != 10000 {
		t.Errorf("expected semaphore_max_concurrent default 10000, got %d", cfg.SemaphoreMaxConcurrent)
	}
}
