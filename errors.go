package progfin

import "fmt"

// The error taxonomy mirrors the failure semantics of the analytics core:
// business-rule violations are typed so callers can branch on them with
// errors.As, and every error carries a descriptive message. Batch operations
// never abort on a per-item error; they collect ItemErrors instead.

// ValidationError reports a business-rule violation in the caller's input:
// a non-positive amount, an empty reason, a self-transfer.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, a ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, a...)}
}

// NotFoundError reports an unknown row id in a named table.
type NotFoundError struct {
	Table Table
	ID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no row %q in table %q", e.ID, e.Table)
}

// StateError reports an operation applied to a row in the wrong state, such
// as a closed budget or an expired budget period.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

func statef(format string, a ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, a...)}
}

// ConsistencyError reports a partial mutation: the destination update of a
// reallocation failed after the source was already debited. The compensating
// write has been attempted; Rollback tells whether it succeeded.
type ConsistencyError struct {
	Msg      string
	Rollback bool // true if the compensating write restored the source
	Err      error
}

func (e *ConsistencyError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// ComputationError reports a failed upstream aggregate fetch or a derived
// computation that could not be carried out.
type ComputationError struct {
	Msg string
	Err error
}

func (e *ComputationError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ComputationError) Unwrap() error { return e.Err }

// ItemError records a per-item failure inside a batch operation.
type ItemError struct {
	ID  string // row id of the failed item
	Err error
}

func (e ItemError) Error() string { return fmt.Sprintf("%s: %v", e.ID, e.Err) }
