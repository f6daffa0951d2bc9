package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentlink/authcore/internal/audit"
	"github.com/talentlink/authcore/internal/fingerprint"
	"github.com/talentlink/authcore/internal/lockout"
	"github.com/talentlink/authcore/internal/rate"
	"github.com/talentlink/authcore/internal/store"
	"github.com/talentlink/authcore/password"
	"github.com/talentlink/authcore/token"
)

// dummyPassword feeds the constant-work verification performed for
// unknown identifiers, so lookup misses cost the same as mismatches.
const dummyPassword = "authcore.enumeration.decoy"

// Builder assembles a Gateway. Construction is allocation-only;
// validation happens in Build, which fails closed on any insecure
// configuration.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	principals PrincipalStore
	sink       AuditSink
	logger     *slog.Logger
	now        func() time.Time
	built      bool
}

// New creates a Builder preloaded with DefaultConfig. Signing secrets
// must still be supplied before Build succeeds.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		now:    time.Now,
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithPrincipalStore supplies the external identity collaborator.
// Required.
func (b *Builder) WithPrincipalStore(ps PrincipalStore) *Builder {
	b.principals = ps
	return b
}

// WithRedis switches the lockout, rate, and fingerprint managers onto
// a shared Redis deployment so their state replicates across
// instances. Without it, state is process-local.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink forwards every security event to an external consumer
// through the async dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the structured logger for degraded-path warnings.
// Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// withClock overrides the clock. Tests only.
func (b *Builder) withClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build validates the configuration and wires the managers into a
// Gateway. A Builder can build at most once.
func (b *Builder) Build() (*Gateway, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.principals == nil {
		return nil, errors.New("principal store is required")
	}

	var kv store.KV
	if b.redis != nil {
		kv = store.NewRedis(b.redis, "ac:")
	} else {
		kv = store.NewMemoryWithClock(b.now)
	}

	passwords, err := password.NewService(password.Config{Cost: b.config.Password.Cost})
	if err != nil {
		return nil, err
	}
	decoyHash, err := passwords.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  []byte(b.config.Token.AccessSecret),
		RefreshSecret: []byte(b.config.Token.RefreshSecret),
		AccessTTL:     b.config.Token.AccessTTL,
		RefreshTTL:    b.config.Token.RefreshTTL,
		Issuer:        b.config.Token.Issuer,
		Leeway:        b.config.Token.Leeway,
		Now:           b.now,
	})
	if err != nil {
		return nil, err
	}

	lockouts := lockout.New(kv, lockout.Config{
		Threshold: b.config.Lockout.Threshold,
		Duration:  b.config.Lockout.Duration,
		BaseDelay: b.config.Lockout.BaseDelay,
		MaxDelay:  b.config.Lockout.MaxDelay,
	}, b.now)

	var loginRate, apiRate *rate.Limiter
	if b.config.LoginRate.Limit > 0 {
		loginRate = rate.New(kv, "login", rate.Config{
			Limit:  b.config.LoginRate.Limit,
			Window: b.config.LoginRate.Window,
		}, b.now)
	}
	if b.config.APIRate.Limit > 0 {
		apiRate = rate.New(kv, "api", rate.Config{
			Limit:  b.config.APIRate.Limit,
			Window: b.config.APIRate.Window,
		}, b.now)
	}

	binder := fingerprint.NewBinder(kv, b.config.Fingerprint.Enabled, b.config.Token.RefreshTTL)

	var dispatcher *audit.Dispatcher
	if b.sink != nil {
		dispatcher = audit.NewDispatcher(audit.DispatcherConfig{
			BufferSize: b.config.Audit.SinkBuffer,
			DropIfFull: b.config.Audit.DropIfFull,
		}, sinkAdapter{sink: b.sink})
	}
	journal := audit.NewLog(b.config.Audit.Capacity, dispatcher, b.now)

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	b.built = true
	return &Gateway{
		config:     b.config,
		logger:     logger,
		principals: b.principals,
		passwords:  passwords,
		decoyHash:  decoyHash,
		tokens:     tokens,
		lockouts:   lockouts,
		loginRate:  loginRate,
		apiRate:    apiRate,
		binder:     binder,
		journal:    journal,
		dispatcher: dispatcher,
		metrics:    newMetrics(),
		now:        b.now,
	}, nil
}
