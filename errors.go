package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/talentlink/authcore/token"
)

var (
	// ErrNotAuthenticated covers every missing/expired/unusable-token
	// rejection on the request path.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is the wrong-password rejection.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked rejects login while the identifier is locked out.
	ErrAccountLocked = errors.New("account locked")
	// ErrRateLimited rejects a request that exceeded its fixed window.
	ErrRateLimited = errors.New("rate limited")
	// ErrFingerprintMismatch flags a session whose fingerprint no longer
	// matches its first-use binding. Callers may force re-login rather
	// than hard-fail.
	ErrFingerprintMismatch = errors.New("session fingerprint mismatch")
	// ErrUpstreamUnavailable marks principal-lookup or credential
	// write-back failures. Never conflated with authentication failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrGatewayNotReady is returned by methods on an unbuilt Gateway.
	ErrGatewayNotReady = errors.New("gateway not initialized")
)

// ErrPrincipalNotFound re-exports the token package sentinel so
// PrincipalStore implementations and gateway callers share one value.
var ErrPrincipalNotFound = token.ErrPrincipalNotFound

// RejectReason is the stable machine-readable rejection code carried to
// callers alongside the error.
type RejectReason string

const (
	ReasonNotAuthenticated    RejectReason = "NotAuthenticated"
	ReasonAccountLocked       RejectReason = "AccountLocked"
	ReasonRateLimited         RejectReason = "RateLimited"
	ReasonFingerprintMismatch RejectReason = "SessionFingerprintMismatch"
	ReasonInvalidCredentials  RejectReason = "InvalidCredentials"
)

// ReasonForError maps a gateway error to its rejection code. The second
// return is false for non-rejection errors (infrastructure failures).
func ReasonForError(err error) (RejectReason, bool) {
	switch {
	case errors.Is(err, ErrAccountLocked):
		return ReasonAccountLocked, true
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited, true
	case errors.Is(err, ErrFingerprintMismatch):
		return ReasonFingerprintMismatch, true
	case errors.Is(err, ErrInvalidCredentials):
		return ReasonInvalidCredentials, true
	case errors.Is(err, ErrNotAuthenticated):
		return ReasonNotAuthenticated, true
	default:
		return "", false
	}
}

// RetryAfterError decorates a rejection sentinel with the remaining
// wait, so callers can render a countdown or a Retry-After header.
// errors.Is against the wrapped sentinel still works.
type RetryAfterError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v (retry in %s)", e.Err, e.RetryAfter.Round(time.Millisecond))
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// RetryAfter extracts the wait metadata from a rejection, if present.
func RetryAfter(err error) (time.Duration, bool) {
	var retryable *RetryAfterError
	if errors.As(err, &retryable) {
		return retryable.RetryAfter, true
	}
	return 0, false
}
