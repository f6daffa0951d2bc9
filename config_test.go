package authcore

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = "test-access-secret-0123456789abcdef"
	cfg.Token.RefreshSecret = "test-refresh-secret-0123456789abcde"
	return cfg
}

func TestValidateFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access secret", func(c *Config) { c.Token.AccessSecret = "" }},
		{"missing refresh secret", func(c *Config) { c.Token.RefreshSecret = "" }},
		{"shared secret", func(c *Config) { c.Token.RefreshSecret = c.Token.AccessSecret }},
		{"short secret in production", func(c *Config) {
			c.Production = true
			c.Token.AccessSecret = "short"
		}},
		{"zero access ttl", func(c *Config) { c.Token.AccessTTL = 0 }},
		{"access ttl not shorter", func(c *Config) { c.Token.AccessTTL = c.Token.RefreshTTL }},
		{"bcrypt cost too low", func(c *Config) { c.Password.Cost = 1 }},
		{"bcrypt cost too high", func(c *Config) { c.Password.Cost = 99 }},
		{"zero lockout threshold", func(c *Config) { c.Lockout.Threshold = 0 }},
		{"zero lockout duration", func(c *Config) { c.Lockout.Duration = 0 }},
		{"rate limit without window", func(c *Config) { c.LoginRate = RateConfig{Limit: 5} }},
		{"zero audit capacity", func(c *Config) { c.Audit.Capacity = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateProductionSecretLength(t *testing.T) {
	cfg := validConfig()
	cfg.Production = true
	cfg.Token.AccessSecret = strings.Repeat("a", 32)
	cfg.Token.RefreshSecret = strings.Repeat("b", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("32-byte production secrets rejected: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHCORE_ACCESS_TOKEN_SECRET", "env-access-secret-0123456789abcdef")
	t.Setenv("AUTHCORE_REFRESH_TOKEN_SECRET", "env-refresh-secret-0123456789abcde")
	t.Setenv("AUTHCORE_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("AUTHCORE_LOCKOUT_THRESHOLD", "3")
	t.Setenv("AUTHCORE_FINGERPRINT_DISABLED", "true")

	cfg, err := ConfigFromEnv("AUTHCORE")
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Token.AccessSecret != "env-access-secret-0123456789abcdef" {
		t.Fatalf("access secret = %q", cfg.Token.AccessSecret)
	}
	if cfg.Token.AccessTTL != 5*time.Minute {
		t.Fatalf("access ttl = %v, want 5m", cfg.Token.AccessTTL)
	}
	if cfg.Lockout.Threshold != 3 {
		t.Fatalf("lockout threshold = %d, want 3", cfg.Lockout.Threshold)
	}
	if cfg.Fingerprint.Enabled {
		t.Fatal("fingerprint still enabled")
	}

	// Untouched knobs keep their defaults.
	if cfg.Token.RefreshTTL != DefaultConfig().Token.RefreshTTL {
		t.Fatalf("refresh ttl = %v, want default", cfg.Token.RefreshTTL)
	}
}

func TestConfigFromEnvMissingSecrets(t *testing.T) {
	t.Setenv("AUTHCORE_ACCESS_TOKEN_SECRET", "")
	t.Setenv("AUTHCORE_REFRESH_TOKEN_SECRET", "")

	if _, err := ConfigFromEnv("AUTHCORE"); err == nil {
		t.Fatal("expected validation failure without secrets")
	}
}

func TestReasonForError(t *testing.T) {
	cases := []struct {
		err    error
		reason RejectReason
	}{
		{ErrNotAuthenticated, ReasonNotAuthenticated},
		{ErrInvalidCredentials, ReasonInvalidCredentials},
		{ErrRateLimited, ReasonRateLimited},
		{ErrFingerprintMismatch, ReasonFingerprintMismatch},
		{&RetryAfterError{Err: ErrAccountLocked, RetryAfter: time.Minute}, ReasonAccountLocked},
	}
	for _, tc := range cases {
		reason, ok := ReasonForError(tc.err)
		if !ok || reason != tc.reason {
			t.Fatalf("ReasonForError(%v) = (%v, %v), want %v", tc.err, reason, ok, tc.reason)
		}
	}

	if _, ok := ReasonForError(ErrUpstreamUnavailable); ok {
		t.Fatal("infrastructure failure mapped to a rejection reason")
	}
}
