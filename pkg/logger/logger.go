// Package logger provides the structured logging contract for the Sentinel service.
// Implementations live in internal/infrastructure/monitoring; this package only
// defines the interface so domain and application code stay free of zap.
package logger

import (
	"context"
	"time"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields creates a new logger with additional fields
	WithFields(fields Fields) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Fields is a set of key-value pairs attached to a log entry
type Fields map[string]interface{}

// String creates a single string field
func String(key string, value string) Fields {
	return Fields{key: value}
}

// Int creates a single integer field
func Int(key string, value int) Fields {
	return Fields{key: value}
}

// Float64 creates a single float64 field
func Float64(key string, value float64) Fields {
	return Fields{key: value}
}

// Duration creates a single duration field
func Duration(key string, value time.Duration) Fields {
	return Fields{key: value.String()}
}

//Personal.AI order the ending
