package authcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/talentlink/authcore/internal/audit"
	"github.com/talentlink/authcore/internal/fingerprint"
	"github.com/talentlink/authcore/internal/lockout"
	"github.com/talentlink/authcore/internal/rate"
	"github.com/talentlink/authcore/password"
	"github.com/talentlink/authcore/token"
)

// Gateway orchestrates the managers into a single per-request verdict:
// accept, refresh-and-accept, or reject with a typed reason. Construct
// through Builder; safe for concurrent use afterwards.
type Gateway struct {
	config     Config
	logger     *slog.Logger
	principals PrincipalStore
	passwords  *password.Service
	decoyHash  string
	tokens     *token.Manager
	lockouts   *lockout.Manager
	loginRate  *rate.Limiter
	apiRate    *rate.Limiter
	binder     *fingerprint.Binder
	journal    *audit.Log
	dispatcher *audit.Dispatcher
	metrics    *Metrics

	refreshGroup singleflight.Group
	now          func() time.Time
}

// Authenticate decides one inbound request. It verifies the access
// token, falls back to minting a new pair from the refresh token when
// the access token is expired or absent, and validates the session
// fingerprint binding before accepting.
func (g *Gateway) Authenticate(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	if g == nil {
		return nil, ErrGatewayNotReady
	}

	if g.apiRate != nil {
		if ip := clientIPFromContext(ctx); ip != "" {
			decision, err := g.apiRate.Allow(ctx, ip)
			if err != nil {
				return nil, upstream(err)
			}
			if !decision.Allowed {
				g.metrics.inc(MetricLoginRateLimited)
				g.record(ctx, audit.Event{
					Type:    audit.TypeRateLimited,
					Details: map[string]string{"class": "api"},
				})
				return nil, &RetryAfterError{Err: ErrRateLimited, RetryAfter: decision.RetryAfter}
			}
		}
	}

	if accessToken == "" && refreshToken == "" {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, token.ErrTokenMissing)
	}

	result := &AuthResult{}
	claims, err := g.tokens.VerifyAccess(accessToken)
	if err != nil {
		if refreshToken == "" {
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}

		pair, refreshed, rerr := g.refresh(ctx, refreshToken)
		if rerr != nil {
			if errors.Is(rerr, ErrUpstreamUnavailable) {
				return nil, rerr
			}
			g.metrics.inc(MetricRefreshFailure)
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, rerr)
		}

		g.metrics.inc(MetricRefreshSuccess)
		g.record(ctx, audit.Event{
			Type:       audit.TypeTokenRefresh,
			Identifier: claimsIdentifier(refreshed),
			Success:    true,
		})
		result.Refreshed = true
		result.Pair = pair
		claims = refreshed
	}

	fp := fingerprint.Compute(fingerprintAttributes(ctx))
	ok, err := g.binder.BindOrValidate(ctx, claims.SessionID, fp)
	if err != nil {
		return nil, upstream(err)
	}
	if !ok {
		g.metrics.inc(MetricFingerprintMismatch)
		g.record(ctx, audit.Event{
			Type:       audit.TypeFingerprintMismatch,
			Identifier: claimsIdentifier(claims),
			Details:    map[string]string{"session_id": claims.SessionID},
		})
		return nil, ErrFingerprintMismatch
	}

	result.Claims = claims
	return result, nil
}

// refresh collapses concurrent refreshes of the same token into one
// mint, so a burst of parallel requests with an expired access token
// produces a single replacement pair.
func (g *Gateway) refresh(ctx context.Context, refreshToken string) (*token.Pair, *token.AccessClaims, error) {
	type outcome struct {
		pair   *token.Pair
		claims *token.AccessClaims
	}

	v, err, _ := g.refreshGroup.Do(refreshToken, func() (interface{}, error) {
		pair, claims, err := g.tokens.Refresh(ctx, refreshToken, g.lookupPrincipal)
		if err != nil {
			return nil, err
		}
		return outcome{pair: pair, claims: claims}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	o := v.(outcome)
	return o.pair, o.claims, nil
}

// lookupPrincipal adapts the external PrincipalStore to the token
// manager's refresh collaborator. Store outages become
// ErrUpstreamUnavailable; missing accounts stay ErrPrincipalNotFound.
func (g *Gateway) lookupPrincipal(ctx context.Context, id, principalType string) (token.Principal, error) {
	principal, err := g.principals.LookupByID(ctx, id, PrincipalType(principalType))
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return token.Principal{}, err
		}
		return token.Principal{}, upstream(err)
	}
	return tokenPrincipal(principal), nil
}

// Logout unbinds the session fingerprint and records the event. Token
// pairs are stateless, so "destroying" them means the caller clears
// its cookies; there is no server-side revocation list.
func (g *Gateway) Logout(ctx context.Context, accessToken string) error {
	if g == nil {
		return ErrGatewayNotReady
	}

	claims, err := g.tokens.VerifyAccess(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	if err := g.binder.Unbind(ctx, claims.SessionID); err != nil {
		g.logger.Warn("fingerprint unbind failed",
			slog.String("session_id", claims.SessionID),
			slog.Any("error", err))
	}

	g.metrics.inc(MetricLogout)
	g.record(ctx, audit.Event{
		Type:       audit.TypeLogout,
		Identifier: claimsIdentifier(claims),
		Success:    true,
	})
	return nil
}

// LockoutStatus reports the current lockout state for an identifier,
// for host UIs that render countdowns.
func (g *Gateway) LockoutStatus(ctx context.Context, identifier string) (locked bool, remaining time.Duration, err error) {
	if g == nil {
		return false, 0, ErrGatewayNotReady
	}
	status, err := g.lockouts.Check(ctx, normalizeIdentifier(identifier))
	if err != nil {
		return false, 0, upstream(err)
	}
	return status.Locked, status.Remaining, nil
}

// RecentEvents returns up to limit journal events newest-first,
// optionally filtered by identifier.
func (g *Gateway) RecentEvents(identifier string, limit int) []AuditEvent {
	if g == nil {
		return nil
	}
	events := g.journal.Recent(normalizeIdentifier(identifier), limit)
	out := make([]AuditEvent, 0, len(events))
	for _, e := range events {
		out = append(out, publicEvent(e))
	}
	return out
}

// DetectAnomaly runs the heuristic scan over the identifier's recent
// events.
func (g *Gateway) DetectAnomaly(identifier string) Anomaly {
	if g == nil {
		return Anomaly{}
	}
	a := g.journal.DetectAnomaly(normalizeIdentifier(identifier))
	return Anomaly{Suspicious: a.Suspicious, Reasons: a.Reasons}
}

// AccessTTL reports the authoritative access-token lifetime.
func (g *Gateway) AccessTTL() time.Duration { return g.config.Token.AccessTTL }

// RefreshTTL reports the refresh-token lifetime.
func (g *Gateway) RefreshTTL() time.Duration { return g.config.Token.RefreshTTL }

// Production reports whether the gateway runs with production
// hardening (used by the HTTP layer for cookie flags).
func (g *Gateway) Production() bool { return g.config.Production }

// MetricsSnapshot copies the current counters.
func (g *Gateway) MetricsSnapshot() MetricsSnapshot {
	if g == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return g.metrics.Snapshot()
}

// AuditDropped reports events discarded under sink backpressure.
func (g *Gateway) AuditDropped() uint64 {
	if g == nil {
		return 0
	}
	return g.dispatcher.Dropped()
}

// Close drains the audit dispatcher.
func (g *Gateway) Close() {
	if g == nil {
		return
	}
	g.dispatcher.Close()
}

// record stamps request context onto the event and appends it.
func (g *Gateway) record(ctx context.Context, event audit.Event) {
	if event.ClientIP == "" {
		event.ClientIP = clientIPFromContext(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = userAgentFromContext(ctx)
	}
	g.journal.Record(ctx, event)
}

func claimsIdentifier(claims *token.AccessClaims) string {
	if claims == nil {
		return ""
	}
	if claims.Username != "" {
		return normalizeIdentifier(claims.Username)
	}
	return normalizeIdentifier(claims.Email)
}

func tokenPrincipal(p *Principal) token.Principal {
	return token.Principal{
		ID:          p.ID,
		Type:        string(p.Type),
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		AccessLevel: p.AccessLevel,
		MassAccess:  p.MassAccess,
		TeamID:      p.TeamID,
	}
}

func upstream(err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
