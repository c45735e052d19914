// Package telemetry provides telemetry adapter interfaces.
package telemetry

import (
	"context"
	"time"
)

// Telemetry defines the telemetry adapter interface.
type Telemetry interface {
	// RecordQuery records a report run.
	RecordQuery(ctx context.Context, info QueryInfo)

	// RecordError records a failed report run.
	RecordError(ctx context.Context, info ErrorInfo)

	// RecordConnection records a connection event.
	RecordConnection(ctx context.Context, info ConnectionInfo)

	// Flush flushes any buffered telemetry data.
	Flush(ctx context.Context) error

	// Close closes the telemetry adapter.
	Close(ctx context.Context) error
}

// QueryInfo contains information about a report run.
type QueryInfo struct {
	// RunID identifies the run in logs.
	RunID string

	// Table is the base table of the report.
	Table string

	// Operation is run, query, template or explain.
	Operation string

	// Duration is how long the run took.
	Duration time.Duration

	// Success indicates if the run succeeded.
	Success bool

	// Rows is the number of rows returned.
	Rows int
}

// ErrorInfo contains information about an error.
type ErrorInfo struct {
	RunID     string
	Error     error
	Table     string
	Operation string
}

// ConnectionInfo contains information about a connection event.
type ConnectionInfo struct {
	// Event is the event type (connect, disconnect, error).
	Event string

	// Duration is how long the operation took.
	Duration time.Duration

	// Success indicates if the operation succeeded.
	Success bool
}

// Config holds telemetry configuration.
type Config struct {
	// Type is the telemetry type (noop, metrics).
	Type string
}
