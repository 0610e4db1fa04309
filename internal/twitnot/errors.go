package twitnot

import (
	"errors"
	"fmt"
)

// Storage error sentinels. The store maps engine-specific failures onto
// these so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when an operation targets a row that
	// does not exist (including deletes that matched zero rows).
	ErrNotFound = errors.New("not found")

	// ErrUniqueViolation is returned when an insert collides with a
	// unique column, e.g. a duplicate screen name.
	ErrUniqueViolation = errors.New("unique constraint violated")

	// ErrConstraintViolation is returned when an insert breaks a
	// primary-key or foreign-key constraint, e.g. a duplicate tweet id
	// or a tweet referencing an unknown user.
	ErrConstraintViolation = errors.New("constraint violated")
)

// ConfigError reports a missing or invalid configuration field.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: missing or invalid %s", e.Field)
}

// HTTPError carries the status and body of a non-success response from
// the remote API (token exchange or timeline fetch).
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d\n%s", e.Status, e.Body)
}

// ParseError reports a malformed field in a fetched item, such as an
// unparseable remote timestamp.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotifyError reports a failed notification delivery.
type NotifyError struct {
	Recipient string
	Err       error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("delivering notification to %s: %v", e.Recipient, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }
