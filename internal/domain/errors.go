package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrUpstream        = errors.New("upstream failure")
)

// ValidationError names the offending field and why it was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UpstreamError is a failed call into the database, the rating lookup
// or the text generator, already classified for callers.
type UpstreamError struct {
	Op      string
	VenueID string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.VenueID != "" {
		return fmt.Sprintf("%s (venue %s): %v", e.Op, e.VenueID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

func Upstream(op, venueID string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, VenueID: venueID, Err: err}
}

// ParseError reports generated text that did not contain a usable insight
// payload. It never causes a partial write.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "parse generated text: " + e.Reason }
