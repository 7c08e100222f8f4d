// Package logging provides structured logging for the nmstate engine.
package logging

import (
	"context"

	"github.com/go-logr/logr"
)

// contextKey is the type for context keys
type contextKey string

// loggerKey is the context key for the logger
const loggerKey contextKey = "logger"

// FromContext returns the logger from the context.
// If no logger is found, returns the global logger.
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return GetGlobalLogger()
	}

	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}

	return GetGlobalLogger()
}

// IntoContext returns a new context with the logger.
func IntoContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LogrFromContext returns a logr.Logger from the context.
func LogrFromContext(ctx context.Context) logr.Logger {
	return FromContext(ctx).Logger()
}

// WithContext returns a new logger with context-specific values.
func WithContext(ctx context.Context, keysAndValues ...interface{}) *Logger {
	return FromContext(ctx).WithValues(keysAndValues...)
}

// ContextWithLogger creates a new context with a named logger.
func ContextWithLogger(ctx context.Context, name string) context.Context {
	logger := FromContext(ctx).WithName(name)
	return IntoContext(ctx, logger)
}

// LoggerForApply returns a logger scoped to one apply call, tagged with
// its checkpoint token once one has been created.
func LoggerForApply(token string) *Logger {
	l := GetGlobalLogger().WithName("apply")
	if token != "" {
		l = l.WithValues("checkpoint", token)
	}
	return l
}

// LoggerForInterface returns a logger scoped to a single interface.
func LoggerForInterface(kind, name string) *Logger {
	return GetGlobalLogger().WithValues("kind", kind, "iface", name)
}

// LoggerForBackend returns a logger for backend-adapter operations.
func LoggerForBackend(component string) *Logger {
	return GetGlobalLogger().WithName("backend").WithValues("component", component)
}

// LoggerForPolicy returns a logger for policy-resolver evaluation.
func LoggerForPolicy(rule string) *Logger {
	return GetGlobalLogger().WithName("policy").WithValues("rule", rule)
}
