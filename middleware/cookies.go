package middleware

import (
	"net/http"
	"time"

	authcore "github.com/talentlink/authcore"
	"github.com/talentlink/authcore/token"
)

// AccessCookieName returns the access-token cookie name for a
// principal population, e.g. "creator_access_token".
func AccessCookieName(principalType authcore.PrincipalType) string {
	return string(principalType) + "_access_token"
}

// RefreshCookieName returns the refresh-token cookie name.
func RefreshCookieName(principalType authcore.PrincipalType) string {
	return string(principalType) + "_refresh_token"
}

// SetTokenCookies delivers a token pair as HTTP-only cookies. The
// cookie Max-Age is derived from the signed token TTLs: the embedded
// expiry is the single authoritative lifetime and the cookie never
// outlives it.
func SetTokenCookies(w http.ResponseWriter, principalType authcore.PrincipalType, pair *token.Pair, accessTTL, refreshTTL time.Duration, secure bool, domain string) {
	if pair == nil {
		return
	}
	http.SetCookie(w, tokenCookie(AccessCookieName(principalType), pair.AccessToken, accessTTL, secure, domain))
	http.SetCookie(w, tokenCookie(RefreshCookieName(principalType), pair.RefreshToken, refreshTTL, secure, domain))
}

// ClearTokenCookies expires both cookies, e.g. on logout.
func ClearTokenCookies(w http.ResponseWriter, principalType authcore.PrincipalType, secure bool, domain string) {
	http.SetCookie(w, tokenCookie(AccessCookieName(principalType), "", -time.Second, secure, domain))
	http.SetCookie(w, tokenCookie(RefreshCookieName(principalType), "", -time.Second, secure, domain))
}

func tokenCookie(name, value string, ttl time.Duration, secure bool, domain string) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if value == "" {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
