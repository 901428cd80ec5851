package insight

import (
	"errors"
	"fmt"
)

// Common analysis errors
var (
	// ErrAnalysisUnavailable is returned when a collaborator (snapshot
	// storage or the summarization model) fails. Retry policy belongs to
	// the caller.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")

	// ErrEmptyQuery is returned when the query text is empty.
	ErrEmptyQuery = errors.New("query text is empty")

	// ErrQueryTooLong is returned when the query exceeds MaxQueryLength.
	ErrQueryTooLong = errors.New("query text exceeds maximum length")
)

// AnalysisError wraps errors with context about the failed analysis step.
type AnalysisError struct {
	// Op is the operation that failed (e.g., "Analyze", "Summarize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("insight: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("insight: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped sentinel errors.
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// unavailable wraps a collaborator failure as the single typed
// "analysis unavailable" failure.
func unavailable(op string, err error, details string) error {
	return &AnalysisError{
		Op:      op,
		Err:     fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err),
		Details: details,
	}
}
