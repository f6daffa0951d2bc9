package authcore

import (
	"context"

	"github.com/talentlink/authcore/internal/fingerprint"
)

type clientIPContextKey struct{}
type userAgentContextKey struct{}
type acceptLanguageContextKey struct{}
type acceptEncodingContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Gateway
// uses it for rate limiting, audit events, and fingerprinting.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx for
// fingerprinting and audit events.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// WithAcceptLanguage attaches the Accept-Language header value to ctx
// for fingerprinting.
func WithAcceptLanguage(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, acceptLanguageContextKey{}, value)
}

// WithAcceptEncoding attaches the Accept-Encoding header value to ctx
// for fingerprinting.
func WithAcceptEncoding(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, acceptEncodingContextKey{}, value)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

func acceptLanguageFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(acceptLanguageContextKey{}).(string)
	return value
}

func acceptEncodingFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(acceptEncodingContextKey{}).(string)
	return value
}

func fingerprintAttributes(ctx context.Context) fingerprint.Attributes {
	return fingerprint.Attributes{
		ClientIP:       clientIPFromContext(ctx),
		UserAgent:      userAgentFromContext(ctx),
		AcceptLanguage: acceptLanguageFromContext(ctx),
		AcceptEncoding: acceptEncodingFromContext(ctx),
	}
}
