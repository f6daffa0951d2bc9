package authcore

import (
	"context"

	"github.com/talentlink/authcore/internal/audit"
	"github.com/talentlink/authcore/token"
)

// PrincipalType discriminates the two account populations sharing this
// core.
type PrincipalType string

const (
	PrincipalEmployee PrincipalType = "employee"
	PrincipalCreator  PrincipalType = "creator"
)

// Principal is an authenticated identity as read from the external
// identity store. The core only reads it to mint claims; the sole
// write-back it ever triggers is the password-hash migration.
type Principal struct {
	ID          string
	Type        PrincipalType
	Username    string
	Email       string
	FirstName   string
	LastName    string
	AccessLevel int
	MassAccess  bool
	TeamID      string
}

// Credential is the stored secret material for one principal.
// LegacyPlaintext is only populated for rows predating any hashing;
// it exists so those accounts can still log in during migration.
type Credential struct {
	PrincipalID     string
	Hash            string
	LegacyPlaintext string
}

// PrincipalStore is the external identity collaborator. Lookups must
// return ErrPrincipalNotFound (possibly wrapped) for missing accounts;
// any other error is treated as an upstream outage.
type PrincipalStore interface {
	// LookupByID fetches the current principal, used during refresh so
	// permission changes take effect without re-login.
	LookupByID(ctx context.Context, id string, principalType PrincipalType) (*Principal, error)

	// LookupByIdentifier resolves a login identifier (email or
	// username, already case-normalized) to principal and credential.
	LookupByIdentifier(ctx context.Context, identifier string) (*Principal, *Credential, error)

	// UpdateCredential persists a re-hashed credential after a
	// successful legacy-scheme verification.
	UpdateCredential(ctx context.Context, principalID, newHash string) error
}

// AuthResult is the accept verdict for one request.
type AuthResult struct {
	Claims *token.AccessClaims
	// Refreshed is true when the access token was expired and the pair
	// was rotated; Pair then carries the replacement tokens the caller
	// must deliver (e.g. as cookies).
	Refreshed bool
	Pair      *token.Pair
}

// LoginResult is the outcome of a successful credential login.
type LoginResult struct {
	Pair      *token.Pair
	Principal *Principal
	SessionID string
	// MigratedHash is true when the stored credential was re-hashed
	// under the current scheme during this login.
	MigratedHash bool
}

// AuditEvent is the public mirror of the journal's event record.
type AuditEvent struct {
	Timestamp  int64             `json:"timestamp_ms"`
	Type       string            `json:"event_type"`
	Identifier string            `json:"identifier,omitempty"`
	ClientIP   string            `json:"client_ip,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Success    bool              `json:"success"`
	Details    map[string]string `json:"details,omitempty"`
}

// AuditSink receives security events for external delivery.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// Anomaly is the public result of the heuristic scan over an
// identifier's recent events.
type Anomaly struct {
	Suspicious bool
	Reasons    []string
}

func publicEvent(e audit.Event) AuditEvent {
	return AuditEvent{
		Timestamp:  e.Timestamp.UnixMilli(),
		Type:       e.Type,
		Identifier: e.Identifier,
		ClientIP:   e.ClientIP,
		UserAgent:  e.UserAgent,
		Success:    e.Success,
		Details:    e.Details,
	}
}

// sinkAdapter lets a public AuditSink consume internal journal events.
type sinkAdapter struct {
	sink AuditSink
}

func (a sinkAdapter) Emit(ctx context.Context, event audit.Event) {
	a.sink.Emit(ctx, publicEvent(event))
}
