package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	authcore "github.com/talentlink/authcore"
)

type authResultContextKey struct{}

// AuthResultFromContext retrieves the verdict injected by Guard.
func AuthResultFromContext(ctx context.Context) (*authcore.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authcore.AuthResult)
	return res, ok
}

// Options controls cookie attributes and rejection rendering.
type Options struct {
	// CookieDomain scopes issued cookies; empty means host-only.
	CookieDomain string
	// Secure forces the Secure cookie attribute. Guard additionally
	// forces it whenever the gateway runs in production mode.
	Secure bool
}

// Guard authenticates every request for one principal population. It
// reads the access token from the {type}_access_token cookie or the
// Authorization bearer header, lets the gateway refresh through the
// {type}_refresh_token cookie when needed, re-issues cookies after a
// rotation, and injects the verdict into the request context.
func Guard(gateway *authcore.Gateway, principalType authcore.PrincipalType, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gateway == nil {
				WriteRejection(w, authcore.ErrGatewayNotReady)
				return
			}

			ctx := ContextFromRequest(r)
			access := accessTokenFromRequest(r, principalType)
			refresh := refreshTokenFromRequest(r, principalType)

			result, err := gateway.Authenticate(ctx, access, refresh)
			if err != nil {
				WriteRejection(w, err)
				return
			}

			if result.Refreshed {
				SetTokenCookies(w, principalType, result.Pair,
					gateway.AccessTTL(), gateway.RefreshTTL(),
					opts.Secure || gateway.Production(), opts.CookieDomain)
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextFromRequest copies the connection attributes the gateway
// consumes (client IP, user agent, accept headers) onto the request
// context.
func ContextFromRequest(r *http.Request) context.Context {
	ctx := r.Context()
	ctx = authcore.WithClientIP(ctx, clientIP(r))
	ctx = authcore.WithUserAgent(ctx, r.UserAgent())
	ctx = authcore.WithAcceptLanguage(ctx, r.Header.Get("Accept-Language"))
	ctx = authcore.WithAcceptEncoding(ctx, r.Header.Get("Accept-Encoding"))
	return ctx
}

func accessTokenFromRequest(r *http.Request, principalType authcore.PrincipalType) string {
	if cookie, err := r.Cookie(AccessCookieName(principalType)); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return ""
}

func refreshTokenFromRequest(r *http.Request, principalType authcore.PrincipalType) string {
	if cookie, err := r.Cookie(RefreshCookieName(principalType)); err == nil {
		return cookie.Value
	}
	return ""
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
