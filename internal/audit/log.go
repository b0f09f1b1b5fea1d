// Package audit emits structured security-event records on the shared
// JSON log stream. Authentication flows record events here so lockouts,
// revocations, and registration abuse leave a queryable trail.
package audit

import (
	"context"
	"errors"
	"strings"

	"finledger.org/internal/auth"
	"finledger.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// Event names recorded by the authentication flows.
const (
	EventRegister      = "auth.register"
	EventLoginOK       = "auth.login"
	EventLoginFailed   = "auth.login_failed"
	EventLockout       = "auth.lockout"
	EventLogout        = "auth.logout"
	EventTokenRefresh  = "auth.token_refresh"
	EventRateLimited   = "ratelimit.denied"
	EventAccountUnlock = "auth.unlock"
)

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit log entry enriched with request and user context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := obs.Entry("info", "audit")
	entry["event"] = event
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		entry["user_id"] = userID
	}
	if len(fields) > 0 {
		copyFields := make(map[string]any, len(fields))
		for k, v := range fields {
			copyFields[k] = v
		}
		entry["fields"] = copyFields
	} else {
		entry["fields"] = map[string]any{}
	}
	obs.Emit(entry)
	return nil
}
