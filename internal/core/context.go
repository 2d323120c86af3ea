package core

import (
	"context"
	"log/slog"

	"github.com/JonMunkholm/eprregister/internal/logging"
)

type contextKey string

const (
	ctxKeyIPAddress contextKey = "actor_ip"
	ctxKeyUserAgent contextKey = "actor_ua"
)

// ContextWithIPAddress adds the client IP to context for operation logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the client User-Agent to context for operation logging.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// opLogger returns a request-scoped logger with the register and actor attached.
func opLogger(ctx context.Context, s *Store) *slog.Logger {
	logger := logging.WithFields(ctx,
		"register", s.def.Info.Kind,
		"owner_id", s.owner.ID,
	)
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		logger = logger.With("ip", ip)
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		logger = logger.With("user_agent", ua)
	}
	return logger
}
