package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyCallerIP  contextKey = "caller_ip"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithCallerIP adds the caller network address to the context
func WithCallerIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyCallerIP, ip)
}

// CallerIPFromContext extracts the caller network address from context
func CallerIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyCallerIP).(string); ok {
		return ip
	}
	return ""
}
