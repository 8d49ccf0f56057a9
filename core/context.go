package core

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type used for context keys in this package to
// prevent collisions with keys defined in other packages.
type contextKey int

const (
	sessionIDKey contextKey = iota
	requestIDKey
	tenantIDKey
)

// TenantID identifies the tenant a request is made on behalf of.
type TenantID string

// WithTenant returns a copy of ctx carrying the given tenant ID.
func WithTenant(ctx context.Context, id TenantID) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

// GetTenant extracts the tenant ID from ctx. It returns an empty TenantID
// if no tenant ID is present.
func GetTenant(ctx context.Context) TenantID {
	id, _ := ctx.Value(tenantIDKey).(TenantID)
	return id
}

// WithSessionID returns a copy of ctx carrying the given session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// GetSessionID extracts the session ID from ctx. It returns an empty string
// if no session ID is present.
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithNewRequestID returns a copy of ctx carrying a freshly generated request
// ID, for call sites that need one but have no caller-supplied correlation ID
// to propagate.
func WithNewRequestID(ctx context.Context) context.Context {
	return WithRequestID(ctx, uuid.New().String())
}

// GetRequestID extracts the request ID from ctx. It returns an empty string
// if no request ID is present.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
