// Package failure defines the outcome kinds a UF lookup can fail with.
//
// Every failed lookup surfaces exactly one Kind. Callers branch on the kind
// (see KindOf) instead of on concrete error values.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the category of a failed lookup
type Kind string

const (
	// Unknown is reported for errors that carry no kind
	Unknown Kind = "unknown"

	// DateBeforeFloor means the requested date precedes the configured minimum
	DateBeforeFloor Kind = "date_before_floor"

	// CalendarInvalid means the day does not exist in the given month and year
	CalendarInvalid Kind = "calendar_invalid"

	// NotFound covers upstream 404s and every structural scraping miss
	NotFound Kind = "not_found"

	// InvalidValue means the scraped text is not numeric after normalization
	InvalidValue Kind = "invalid_value"

	// Upstream means the source answered with a non-404 bad status
	Upstream Kind = "upstream"

	// Timeout means the outbound call did not complete in time
	Timeout Kind = "timeout"

	// Transport covers connection-level failures (DNS, refused connections)
	Transport Kind = "transport"
)

func (k Kind) String() string {
	return string(k)
}

// Error is a lookup failure of a specific kind
type Error struct {
	Cause      error
	Kind       Kind
	Message    string
	StatusCode int // upstream status, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause.Error())
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, failure.New(kind, ""))
// works as a kind check
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// New creates a new failure of the given kind
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new failure of the given kind, caused by err
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// NewNotFound creates a NotFound failure
func NewNotFound(message string) *Error {
	return New(NotFound, message)
}

// NewUpstream creates an Upstream failure for the given status code
func NewUpstream(statusCode int) *Error {
	return &Error{
		Kind:       Upstream,
		Message:    "source returned an error",
		StatusCode: statusCode,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
// It returns Unknown for errors that carry no kind
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
