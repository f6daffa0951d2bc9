package authcore

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minSecretBytes = 32

// Config is the complete tuning surface of the core. Secrets have no
// defaults anywhere: a Config missing either signing secret fails
// validation instead of signing with something guessable.
type Config struct {
	// Production tightens validation (secret length) and marks cookies
	// secure in the HTTP layer.
	Production bool

	Token       TokenConfig
	Password    PasswordConfig
	Lockout     LockoutConfig
	LoginRate   RateConfig
	APIRate     RateConfig
	Fingerprint FingerprintConfig
	Audit       AuditConfig
}

// TokenConfig configures pair issuance. The signed access-token expiry
// is the single authoritative session lifetime; cookie Max-Age is
// derived from AccessTTL, never configured separately.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// PasswordConfig configures the hashing scheme.
type PasswordConfig struct {
	Cost int
}

// LockoutConfig configures brute-force suspension.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// RateConfig configures one fixed-window action class. A zero Limit
// disables the limiter.
type RateConfig struct {
	Limit  int
	Window time.Duration
}

// FingerprintConfig configures session binding.
type FingerprintConfig struct {
	Enabled bool
}

// AuditConfig configures the event journal and sink delivery.
type AuditConfig struct {
	Capacity   int
	SinkBuffer int
	DropIfFull bool
}

// DefaultConfig returns the policy defaults. Signing secrets are
// deliberately absent and must be supplied by the deployment.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Issuer:     "authcore",
		},
		Password: PasswordConfig{
			Cost: bcrypt.DefaultCost,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
			BaseDelay: time.Second,
			MaxDelay:  30 * time.Second,
		},
		LoginRate: RateConfig{
			Limit:  10,
			Window: 15 * time.Minute,
		},
		APIRate: RateConfig{
			Limit:  300,
			Window: time.Minute,
		},
		Fingerprint: FingerprintConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Capacity:   1000,
			SinkBuffer: 256,
			DropIfFull: true,
		},
	}
}

// Validate fails closed on any configuration that would weaken the
// core: absent or shared secrets, zero TTLs, or a disabled lockout.
func (c Config) Validate() error {
	if c.Token.AccessSecret == "" || c.Token.RefreshSecret == "" {
		return errors.New("token signing secrets are required")
	}
	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Production {
		if len(c.Token.AccessSecret) < minSecretBytes || len(c.Token.RefreshSecret) < minSecretBytes {
			return errors.New("production signing secrets must be at least 32 bytes")
		}
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return errors.New("bcrypt cost out of range")
	}
	if c.Lockout.Threshold <= 0 {
		return errors.New("lockout threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	if c.LoginRate.Limit > 0 && c.LoginRate.Window <= 0 {
		return errors.New("login rate window must be positive")
	}
	if c.APIRate.Limit > 0 && c.APIRate.Window <= 0 {
		return errors.New("api rate window must be positive")
	}
	if c.Audit.Capacity <= 0 {
		return errors.New("audit capacity must be positive")
	}
	return nil
}
