package token

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Error taxonomy for token verification and refresh. Callers branch
// with errors.Is; anything outside this set from Refresh is a
// principal-lookup infrastructure failure passed through unchanged.
var (
	ErrTokenMissing      = errors.New("token missing")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenTypeMismatch = errors.New("token type mismatch")
	ErrPrincipalNotFound = errors.New("principal not found")
)

// Token-use discriminators embedded in every claim set so an access
// token can never be replayed as a refresh token or vice versa.
const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// Config holds signing parameters. Access and refresh tokens are
// signed with independent secrets.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration

	// Now overrides the clock for issuance and validation. Tests only.
	Now func() time.Time
}

// Pair is one issued access/refresh token pair. Pairs are superseded,
// never revoked: there is no server-side denylist, an accepted
// limitation of the first implementation.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Principal is the claim-source view of an authenticated identity.
type Principal struct {
	ID          string
	Type        string // "employee" or "creator"
	Username    string
	Email       string
	FirstName   string
	LastName    string
	AccessLevel int
	MassAccess  bool
	TeamID      string
}

// PrincipalLookup re-fetches the current principal during refresh so
// role and permission changes take effect without re-login. Must
// return ErrPrincipalNotFound (possibly wrapped) for missing accounts;
// any other error is treated as an upstream failure.
type PrincipalLookup func(ctx context.Context, id, principalType string) (Principal, error)

// AccessClaims is the full, stateless claim set on access tokens.
type AccessClaims struct {
	TokenUse      string `json:"use"`
	PrincipalID   string `json:"id"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	AccessLevel   int    `json:"accessLevel"`
	MassAccess    bool   `json:"massAccess"`
	TeamID        string `json:"teamId,omitempty"`
	PrincipalType string `json:"type"`
	SessionID     string `json:"sid"`
	jwt.RegisteredClaims
}

// Principal reconstructs the claim-source view carried by the token.
func (c *AccessClaims) Principal() Principal {
	return Principal{
		ID:          c.PrincipalID,
		Type:        c.PrincipalType,
		Username:    c.Username,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		AccessLevel: c.AccessLevel,
		MassAccess:  c.MassAccess,
		TeamID:      c.TeamID,
	}
}

// RefreshClaims is the minimal claim set on refresh tokens. Everything
// else is re-fetched at refresh time.
type RefreshClaims struct {
	TokenUse      string `json:"use"`
	PrincipalID   string `json:"id"`
	Username      string `json:"username,omitempty"`
	PrincipalType string `json:"type"`
	SessionID     string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues, verifies, and rotates token pairs. Stateless: every
// verdict comes from signature and embedded expiry alone.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates the configuration and creates a Manager.
// Fails closed: missing or shared secrets refuse to construct rather
// than fall back to a guessable default.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token signing secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{config: cfg, now: now}, nil
}

// AccessTTL reports the configured access-token lifetime. The signed
// expiry is authoritative; cookie lifetimes must be derived from it.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// Issue builds and signs a fresh pair for the principal. The session
// ID is carried in both tokens and survives refresh, anchoring the
// fingerprint binding.
func (m *Manager) Issue(p Principal, sessionID string) (*Pair, error) {
	now := m.now()

	access := AccessClaims{
		TokenUse:      useAccess,
		PrincipalID:   p.ID,
		Username:      p.Username,
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		AccessLevel:   p.AccessLevel,
		MassAccess:    p.MassAccess,
		TeamID:        p.TeamID,
		PrincipalType: p.Type,
		SessionID:     sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	refresh := RefreshClaims{
		TokenUse:      useRefresh,
		PrincipalID:   p.ID,
		Username:      p.Username,
		PrincipalType: p.Type,
		SessionID:     sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(m.config.AccessSecret)
	if err != nil {
		return nil, err
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(m.config.RefreshSecret)
	if err != nil {
		return nil, err
	}

	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// VerifyAccess checks signature and expiry of an access token.
func (m *Manager) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	if tokenStr == "" {
		return nil, ErrTokenMissing
	}

	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.config.AccessSecret); err != nil {
		return nil, err
	}
	if claims.TokenUse != useAccess {
		return nil, ErrTokenTypeMismatch
	}
	return claims, nil
}

// VerifyRefresh checks signature, expiry, and use of a refresh token.
func (m *Manager) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	if tokenStr == "" {
		return nil, ErrTokenMissing
	}

	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.config.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenUse != useRefresh {
		return nil, ErrTokenTypeMismatch
	}
	return claims, nil
}

// Refresh verifies the refresh token, re-fetches the current principal
// through lookup, and mints a brand-new pair under the same session.
// The superseded refresh token is not revoked server-side.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, lookup PrincipalLookup) (*Pair, *AccessClaims, error) {
	claims, err := m.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	principal, err := lookup(ctx, claims.PrincipalID, claims.PrincipalType)
	if err != nil {
		return nil, nil, err
	}
	if principal.Type != claims.PrincipalType {
		return nil, nil, ErrTokenTypeMismatch
	}

	pair, err := m.Issue(principal, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}

	accessClaims, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		return nil, nil, err
	}
	return pair, accessClaims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if !token.Valid {
		return ErrTokenMalformed
	}
	return nil
}
