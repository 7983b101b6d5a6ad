package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.WarnThreshold >= cfg.ExpiryThreshold {
		t.Error("default warn threshold must be below expiry threshold")
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.WarnThreshold = 5 * time.Minute
	cfg.ExpiryThreshold = 3 * time.Minute

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for warn >= expiry")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestValidateRejectsEqualThresholds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.WarnThreshold = 3 * time.Minute
	cfg.ExpiryThreshold = 3 * time.Minute

	if cfg.Validate() == nil {
		t.Fatal("expected error for warn == expiry")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GAUNTLET_TEST_STR", "value")
	t.Setenv("GAUNTLET_TEST_INT", "42")
	t.Setenv("GAUNTLET_TEST_BOOL", "true")
	t.Setenv("GAUNTLET_TEST_DUR", "90s")
	t.Setenv("GAUNTLET_TEST_BADDUR", "ninety seconds")

	if got := GetEnv("GAUNTLET_TEST_STR", "x"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("GAUNTLET_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv default = %q", got)
	}
	if got := GetEnvInt("GAUNTLET_TEST_INT", 0); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvBool("GAUNTLET_TEST_BOOL", false); !got {
		t.Error("GetEnvBool = false, want true")
	}
	if got := GetEnvDuration("GAUNTLET_TEST_DUR", 0); got != 90*time.Second {
		t.Errorf("GetEnvDuration = %s", got)
	}
	if got := GetEnvDuration("GAUNTLET_TEST_BADDUR", time.Minute); got != time.Minute {
		t.Errorf("GetEnvDuration should fall back on parse error, got %s", got)
	}
}
