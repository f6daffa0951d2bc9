package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	authcore "github.com/talentlink/authcore"
)

type rejectionBody struct {
	Error      string `json:"error"`
	RetryAfter int64  `json:"retry_after_ms,omitempty"`
}

// WriteRejection renders a gateway error as an HTTP response.
//
// Account-locked and wrong-password rejections deliberately share one
// wire shape: an external client probing identifiers must not be able
// to tell them apart. The distinction stays on the typed error for the
// trusted UI layer.
func WriteRejection(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, authcore.ErrRateLimited):
		retry, _ := authcore.RetryAfter(err)
		if retry > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(int64(retry.Seconds())+1, 10))
		}
		writeBody(w, http.StatusTooManyRequests, rejectionBody{
			Error:      "rate_limited",
			RetryAfter: retry.Milliseconds(),
		})

	case errors.Is(err, authcore.ErrAccountLocked), errors.Is(err, authcore.ErrInvalidCredentials):
		// Indistinguishable on purpose; see the function comment.
		writeBody(w, http.StatusUnauthorized, rejectionBody{Error: "invalid_credentials"})

	case errors.Is(err, authcore.ErrFingerprintMismatch):
		writeBody(w, http.StatusUnauthorized, rejectionBody{Error: "session_fingerprint_mismatch"})

	case errors.Is(err, authcore.ErrNotAuthenticated):
		writeBody(w, http.StatusUnauthorized, rejectionBody{Error: "not_authenticated"})

	case errors.Is(err, authcore.ErrUpstreamUnavailable):
		writeBody(w, http.StatusServiceUnavailable, rejectionBody{Error: "upstream_unavailable"})

	default:
		writeBody(w, http.StatusInternalServerError, rejectionBody{Error: "internal"})
	}
}

func writeBody(w http.ResponseWriter, status int, body rejectionBody) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
