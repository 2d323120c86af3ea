package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/eprregister/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so that
// register operation logs can be traced back to the caller.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already replaced for requests from trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
