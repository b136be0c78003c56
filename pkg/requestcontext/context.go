// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services consume them. Keeping the package free
// of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	p := requestcontext.Principal(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithPrincipal(ctx, principal)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the capability set attached to an authenticated principal.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleValidator   Role = "validator"
	RoleAdmin       Role = "admin"
)

// AuthPrincipal is the authenticated caller supplied by the session provider.
// The zero value means "unauthenticated".
type AuthPrincipal struct {
	ID   uuid.UUID
	Role Role
}

// IsZero reports whether no principal was attached to the request.
func (p AuthPrincipal) IsZero() bool { return p.ID == uuid.Nil }

// Can reports whether the principal satisfies the required role. Admins
// satisfy every check; validators satisfy validator checks.
func (p AuthPrincipal) Can(required Role) bool {
	if p.IsZero() {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	return p.Role == required
}

type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Principal retrieves the authenticated principal from the context.
// Returns the zero value if not set.
func Principal(ctx context.Context) AuthPrincipal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(AuthPrincipal); ok {
		return p
	}
	return AuthPrincipal{}
}

// WithPrincipal injects an authenticated principal into the context.
func WithPrincipal(ctx context.Context, p AuthPrincipal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, cron, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for cron jobs that need one consistent time across a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
