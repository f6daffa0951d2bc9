package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentlink/authcore/internal/audit"
	"github.com/talentlink/authcore/internal/fingerprint"
)

// Login runs the full credential flow: rate limit, lockout check,
// password verification across hash generations, failure bookkeeping
// with progressive delay, and on success lockout reset, hash migration
// write-back, and token pair issuance with fingerprint binding.
//
// Wire note: callers must keep the ErrAccountLocked and
// ErrInvalidCredentials responses indistinguishable to unauthenticated
// clients; the typed errors exist for the trusted UI layer.
func (g *Gateway) Login(ctx context.Context, identifier, plaintext string) (*LoginResult, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}

	id := normalizeIdentifier(identifier)
	if id == "" || plaintext == "" {
		return nil, ErrInvalidCredentials
	}
	ip := clientIPFromContext(ctx)

	for _, key := range loginRateKeys(id, ip) {
		if g.loginRate == nil {
			break
		}
		decision, err := g.loginRate.Allow(ctx, key)
		if err != nil {
			return nil, upstream(err)
		}
		if !decision.Allowed {
			g.metrics.inc(MetricLoginRateLimited)
			g.record(ctx, audit.Event{
				Type:       audit.TypeRateLimited,
				Identifier: id,
				Details:    map[string]string{"class": "login"},
			})
			return nil, &RetryAfterError{Err: ErrRateLimited, RetryAfter: decision.RetryAfter}
		}
	}

	status, err := g.lockouts.Check(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if status.Locked {
		g.metrics.inc(MetricLockedRejected)
		g.record(ctx, audit.Event{
			Type:       audit.TypeLogin,
			Identifier: id,
			Details:    map[string]string{"reason": "locked"},
		})
		return nil, &RetryAfterError{Err: ErrAccountLocked, RetryAfter: status.Remaining}
	}

	principal, credential, lookupErr := g.principals.LookupByIdentifier(ctx, id)
	valid, needsMigration := false, false
	switch {
	case lookupErr == nil:
		result := g.passwords.Verify(plaintext, credential.Hash, credential.LegacyPlaintext)
		valid, needsMigration = result.Valid, result.NeedsMigration
	case errors.Is(lookupErr, ErrPrincipalNotFound):
		// Unknown identifier: burn an equivalent verification so the
		// response timing does not reveal account existence.
		g.passwords.Verify(plaintext, g.decoyHash, "")
	default:
		return nil, upstream(lookupErr)
	}

	if !valid {
		return nil, g.loginFailed(ctx, id)
	}

	if err := g.lockouts.RecordSuccess(ctx, id); err != nil {
		return nil, upstream(err)
	}

	migrated := false
	if needsMigration {
		if err := g.migrateCredential(ctx, id, principal, plaintext); err != nil {
			return nil, err
		}
		migrated = true
	}

	sessionID := uuid.NewString()
	pair, err := g.tokens.Issue(tokenPrincipal(principal), sessionID)
	if err != nil {
		return nil, err
	}

	fp := fingerprint.Compute(fingerprintAttributes(ctx))
	if _, err := g.binder.BindOrValidate(ctx, sessionID, fp); err != nil {
		return nil, upstream(err)
	}

	g.metrics.inc(MetricLoginSuccess)
	g.record(ctx, audit.Event{
		Type:       audit.TypeLogin,
		Identifier: id,
		Success:    true,
	})

	return &LoginResult{
		Pair:         pair,
		Principal:    principal,
		SessionID:    sessionID,
		MigratedHash: migrated,
	}, nil
}

// loginFailed records the failure, escalates the lockout, applies the
// progressive delay, and returns the credential rejection.
func (g *Gateway) loginFailed(ctx context.Context, id string) error {
	status, err := g.lockouts.RecordFailure(ctx, id)
	if err != nil {
		return upstream(err)
	}

	g.metrics.inc(MetricLoginFailure)
	g.record(ctx, audit.Event{
		Type:       audit.TypeLogin,
		Identifier: id,
		Details:    map[string]string{"failures": strconv.Itoa(status.Failures)},
	})

	if status.Locked {
		g.metrics.inc(MetricLockoutTriggered)
		g.record(ctx, audit.Event{
			Type:       audit.TypeLockout,
			Identifier: id,
			Details:    map[string]string{"remaining_ms": strconv.FormatInt(status.Remaining.Milliseconds(), 10)},
		})
	}

	if anomaly := g.journal.DetectAnomaly(id); anomaly.Suspicious {
		g.metrics.inc(MetricAnomalyFlagged)
		g.logger.Warn("login anomaly detected",
			slog.String("identifier", id),
			slog.Any("reasons", anomaly.Reasons))
	}

	if err := sleepCtx(ctx, g.lockouts.DelayForFailures(status.Failures)); err != nil {
		return err
	}
	return ErrInvalidCredentials
}

// migrateCredential re-hashes a legacy credential under the current
// scheme and persists it. A write-back failure is an upstream outage,
// surfaced as such rather than disguised as bad credentials.
func (g *Gateway) migrateCredential(ctx context.Context, id string, principal *Principal, plaintext string) error {
	newHash, err := g.passwords.Hash(plaintext)
	if err != nil {
		return upstream(err)
	}
	if err := g.principals.UpdateCredential(ctx, principal.ID, newHash); err != nil {
		g.record(ctx, audit.Event{
			Type:       audit.TypePasswordMigration,
			Identifier: id,
			Details:    map[string]string{"error": err.Error()},
		})
		return upstream(err)
	}

	g.metrics.inc(MetricPasswordMigration)
	g.record(ctx, audit.Event{
		Type:       audit.TypePasswordMigration,
		Identifier: id,
		Success:    true,
	})
	return nil
}

// loginRateKeys yields the counter keys for one login attempt: always
// the identifier, plus the client address when known.
func loginRateKeys(id, ip string) []string {
	keys := []string{"id:" + id}
	if ip != "" {
		keys = append(keys, "ip:"+ip)
	}
	return keys
}

// normalizeIdentifier case-folds and trims a login identifier so
// lockout and rate counters cannot be split across spellings.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// sleepCtx waits for d, honoring cancellation. Used for the
// progressive delay on failed attempts.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("login delay interrupted: %w", ctx.Err())
	}
}
