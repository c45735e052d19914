package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for report compilation and execution.
var (
	// ErrUnknownOperator indicates a filter operator outside the supported set.
	ErrUnknownOperator = errors.New("reportql: unknown filter operator")

	// ErrInvalidRequest indicates a request that cannot be compiled.
	ErrInvalidRequest = errors.New("reportql: invalid request")

	// ErrTableNotFound indicates the backing store has no such table.
	ErrTableNotFound = errors.New("reportql: table not found")

	// ErrNoRelationship indicates an embedded relation with no foreign key
	// from the base table.
	ErrNoRelationship = errors.New("reportql: no relationship between tables")

	// ErrTemplateNotFound indicates a missing report template.
	ErrTemplateNotFound = errors.New("reportql: template not found")

	// ErrInvalidTemplateName indicates a template name outside [A-Za-z0-9_-].
	ErrInvalidTemplateName = errors.New("reportql: invalid template name")
)

// ReportError carries the table and stage of a failed report.
type ReportError struct {
	// Code identifies the failing stage: compile, execute, metadata.
	Code string

	// Table is the base table of the report.
	Table string

	// Message is a human-readable summary.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("reportql [%s] %s: %s: %v", e.Code, e.Table, e.Message, e.Cause)
	}
	return fmt.Sprintf("reportql [%s] %s: %v", e.Code, e.Message, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ReportError) Unwrap() error {
	return e.Cause
}

// IsClientError reports whether err was caused by the request rather than
// the backing store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownOperator) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrNoRelationship) ||
		errors.Is(err, ErrInvalidTemplateName)
}
