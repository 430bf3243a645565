/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The computation itself degrades silently (missing data counts as zero);
  these errors belong to the boundaries around it: ingestion of free-text
  records, the store, and the HTTP layer.

ERROR CATEGORIES:
  1. Ingestion errors - Free text that does not map to a closed enum
  2. Validation errors - Malformed periods or documents
  3. Store errors - Lookups of missing records, duplicate IDs

USAGE:
  Callers wrap these with context and test with errors.Is:

    if errors.Is(err, generic.ErrUnknownEnum) {
        // reject the document
    }

SEE ALSO:
  - factory/contract.go: Raises EnumError while parsing documents
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownEnum is returned when a free-text field does not match any
	// member of its closed enum.
	ErrUnknownEnum = errors.New("unknown enum value")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidDocument is returned when an ingested document cannot be decoded.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrContractNotFound is returned by write paths that need an existing contract.
	ErrContractNotFound = errors.New("contract not found")

	// ErrDuplicateRecord is returned when an ingested record reuses an ID.
	ErrDuplicateRecord = errors.New("record already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// EnumError reports which field carried an unrecognized value.
type EnumError struct {
	Field string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

func (e *EnumError) Unwrap() error {
	return ErrUnknownEnum
}

// PeriodError reports a period whose bounds are inverted or unparsable.
type PeriodError struct {
	PeriodID string
	Period   Period
	Reason   string
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("period %s %s: %s", e.PeriodID, e.Period, e.Reason)
}

func (e *PeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownEnum) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDocument)
}

// IsConflict returns true if the error is a duplicate write.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRecord)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound)
}
