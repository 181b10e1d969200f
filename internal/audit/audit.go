// Package audit emits structured audit events for credential and
// authorization activity: logins, renewals, officer changes, denials.
package audit

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"swasthya.org/internal/auth"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so audit
// entries can be correlated with access logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request id if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Log writes audit events through a zerolog logger.
type Log struct {
	l zerolog.Logger
}

// New builds an audit log on top of the root logger.
func New(l zerolog.Logger) *Log {
	return &Log{l: l.With().Str("type", "audit").Logger()}
}

// Event records an audit entry enriched with request and principal context.
func (a *Log) Event(ctx context.Context, event string, fields map[string]any) {
	if a == nil || strings.TrimSpace(event) == "" {
		return
	}
	e := a.l.Info().Str("event", event)
	if rid := RequestIDFromContext(ctx); rid != "" {
		e = e.Str("request_id", rid)
	}
	if user, ok := auth.PrincipalFromContext(ctx); ok {
		e = e.Str("user_id", user.ID).Str("role", string(user.Role()))
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Send()
}
