package services

import "fmt"

// ParseError reports a single malformed field. The enricher absorbs it to
// nil for every field except the record date.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q", e.Field, e.Value)
}

// RowRejected means a whole row cannot be enriched (mandatory field missing
// or unparseable). The caller logs it, skips the row, and continues the
// batch.
type RowRejected struct {
	Reason string
	Err    error
}

func (e *RowRejected) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("row rejected: %s", e.Reason)
}

func (e *RowRejected) Unwrap() error {
	return e.Err
}
