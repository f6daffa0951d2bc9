package authcore

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envSpec is the environment surface. Only what deployments actually
// vary is exposed; everything else keeps the DefaultConfig value.
type envSpec struct {
	Production        bool          `envconfig:"PRODUCTION"`
	AccessSecret      string        `envconfig:"ACCESS_TOKEN_SECRET"`
	RefreshSecret     string        `envconfig:"REFRESH_TOKEN_SECRET"`
	AccessTTL         time.Duration `envconfig:"ACCESS_TOKEN_TTL"`
	RefreshTTL        time.Duration `envconfig:"REFRESH_TOKEN_TTL"`
	Issuer            string        `envconfig:"TOKEN_ISSUER"`
	BcryptCost        int           `envconfig:"BCRYPT_COST"`
	LockoutThreshold  int           `envconfig:"LOCKOUT_THRESHOLD"`
	LockoutDuration   time.Duration `envconfig:"LOCKOUT_DURATION"`
	LoginRateLimit    int           `envconfig:"LOGIN_RATE_LIMIT"`
	LoginRateWindow   time.Duration `envconfig:"LOGIN_RATE_WINDOW"`
	APIRateLimit      int           `envconfig:"API_RATE_LIMIT"`
	APIRateWindow     time.Duration `envconfig:"API_RATE_WINDOW"`
	FingerprintOff    bool          `envconfig:"FINGERPRINT_DISABLED"`
	AuditCapacity     int           `envconfig:"AUDIT_CAPACITY"`
}

// ConfigFromEnv loads configuration from prefixed environment
// variables (e.g. AUTHCORE_ACCESS_TOKEN_SECRET) over DefaultConfig,
// then validates. Missing secrets fail here, before any traffic.
func ConfigFromEnv(prefix string) (Config, error) {
	var env envSpec
	if err := envconfig.Process(prefix, &env); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Production = env.Production
	cfg.Token.AccessSecret = env.AccessSecret
	cfg.Token.RefreshSecret = env.RefreshSecret
	if env.AccessTTL > 0 {
		cfg.Token.AccessTTL = env.AccessTTL
	}
	if env.RefreshTTL > 0 {
		cfg.Token.RefreshTTL = env.RefreshTTL
	}
	if env.Issuer != "" {
		cfg.Token.Issuer = env.Issuer
	}
	if env.BcryptCost > 0 {
		cfg.Password.Cost = env.BcryptCost
	}
	if env.LockoutThreshold > 0 {
		cfg.Lockout.Threshold = env.LockoutThreshold
	}
	if env.LockoutDuration > 0 {
		cfg.Lockout.Duration = env.LockoutDuration
	}
	if env.LoginRateLimit > 0 {
		cfg.LoginRate.Limit = env.LoginRateLimit
	}
	if env.LoginRateWindow > 0 {
		cfg.LoginRate.Window = env.LoginRateWindow
	}
	if env.APIRateLimit > 0 {
		cfg.APIRate.Limit = env.APIRateLimit
	}
	if env.APIRateWindow > 0 {
		cfg.APIRate.Window = env.APIRateWindow
	}
	cfg.Fingerprint.Enabled = !env.FingerprintOff
	if env.AuditCapacity > 0 {
		cfg.Audit.Capacity = env.AuditCapacity
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
