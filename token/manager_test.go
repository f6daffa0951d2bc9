package token

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var testPrincipal = Principal{
	ID:          "emp-42",
	Type:        "employee",
	Username:    "jsmith",
	Email:       "jsmith@example.com",
	FirstName:   "Jo",
	LastName:    "Smith",
	AccessLevel: 3,
	MassAccess:  true,
	TeamID:      "team-7",
}

func testConfig() Config {
	return Config{
		AccessSecret:  []byte("access-secret-for-tests-0123456789ab"),
		RefreshSecret: []byte("refresh-secret-for-tests-0123456789a"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "authcore-test",
	}
}

func newTestManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueVerifyAccessRoundTrip(t *testing.T) {
	m := newTestManager(t, nil)

	pair, err := m.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("issued pair has empty tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := m.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if got := claims.Principal(); got != testPrincipal {
		t.Fatalf("claims round-trip mismatch:\n got  %+v\n want %+v", got, testPrincipal)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("session id = %q, want sess-1", claims.SessionID)
	}

	refresh, err := m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if refresh.PrincipalID != testPrincipal.ID || refresh.SessionID != "sess-1" {
		t.Fatalf("refresh claims mismatch: %+v", refresh)
	}
}

func TestVerifyErrors(t *testing.T) {
	m := newTestManager(t, nil)

	pair, err := m.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.VerifyAccess(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("empty token: got %v, want ErrTokenMissing", err)
	}
	if _, err := m.VerifyAccess("not.a.jwt"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("garbage token: got %v, want ErrTokenMalformed", err)
	}

	// Refresh token presented on the access path and vice versa. Both
	// fail before any claim is trusted: the secrets differ, so the
	// signature check rejects first.
	if _, err := m.VerifyAccess(pair.RefreshToken); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := m.VerifyRefresh(pair.AccessToken); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestVerifyUseClaimMismatch(t *testing.T) {
	// Same secret on both sides so the signature verifies and only the
	// use discriminator stands between the two token kinds.
	shared := []byte("shared-secret-for-use-claim-test-123")
	issuer, err := NewManager(Config{
		AccessSecret:  shared,
		RefreshSecret: []byte("other-refresh-secret-0123456789abcdef"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	verifier, err := NewManager(Config{
		AccessSecret:  []byte("other-access-secret-0123456789abcdef"),
		RefreshSecret: shared,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	pair, err := issuer.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("got %v, want ErrTokenTypeMismatch", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	issuer := newTestManager(t, func(cfg *Config) {
		cfg.Now = func() time.Time { return past }
	})
	verifier := newTestManager(t, nil)

	pair, err := issuer.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("access: got %v, want ErrTokenExpired", err)
	}
	if _, err := verifier.VerifyRefresh(pair.RefreshToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("refresh: got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := newTestManager(t, nil)
	other := newTestManager(t, func(cfg *Config) {
		cfg.AccessSecret = []byte("a-completely-different-access-secret")
	})

	pair, err := m.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := other.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("got %v, want ErrTokenMalformed", err)
	}
}

func TestRefreshReFetchesPrincipal(t *testing.T) {
	m := newTestManager(t, nil)

	pair, err := m.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	promoted := testPrincipal
	promoted.AccessLevel = 9
	lookupCalls := 0
	lookup := func(ctx context.Context, id, principalType string) (Principal, error) {
		lookupCalls++
		if id != testPrincipal.ID || principalType != testPrincipal.Type {
			return Principal{}, fmt.Errorf("unexpected lookup for %s/%s", id, principalType)
		}
		return promoted, nil
	}

	newPair, claims, err := m.Refresh(context.Background(), pair.RefreshToken, lookup)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if lookupCalls != 1 {
		t.Fatalf("lookup called %d times, want 1", lookupCalls)
	}
	if claims.AccessLevel != 9 {
		t.Fatalf("refreshed access level = %d, want the re-fetched 9", claims.AccessLevel)
	}
	if claims.SessionID != "sess-1" {
		t.Fatalf("session id changed across refresh: %q", claims.SessionID)
	}
	if _, err := m.VerifyAccess(newPair.AccessToken); err != nil {
		t.Fatalf("new access token does not verify: %v", err)
	}
}

func TestRefreshPrincipalGone(t *testing.T) {
	m := newTestManager(t, nil)

	pair, err := m.Issue(testPrincipal, "sess-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	lookup := func(ctx context.Context, id, principalType string) (Principal, error) {
		return Principal{}, fmt.Errorf("row deleted: %w", ErrPrincipalNotFound)
	}
	if _, _, err := m.Refresh(context.Background(), pair.RefreshToken, lookup); !errors.Is(err, ErrPrincipalNotFound) {
		t.Fatalf("got %v, want ErrPrincipalNotFound", err)
	}
}

func TestNewManagerFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access secret", func(c *Config) { c.AccessSecret = nil }},
		{"missing refresh secret", func(c *Config) { c.RefreshSecret = nil }},
		{"shared secret", func(c *Config) { c.RefreshSecret = c.AccessSecret }},
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"access ttl not shorter", func(c *Config) { c.AccessTTL = c.RefreshTTL }},
		{"negative leeway", func(c *Config) { c.Leeway = -time.Second }},
		{"huge leeway", func(c *Config) { c.Leeway = time.Hour }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}
