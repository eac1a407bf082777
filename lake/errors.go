package lake

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why a tool call failed.
type ErrorKind int

const (
	// KindStore covers faults reported by the object store: access denied,
	// missing bucket or key, throttling. Surfaced with the store's own message.
	KindStore ErrorKind = iota + 1

	// KindFormat covers object bytes that could not be decoded as the
	// requested format (CSV, JSON, Parquet, compressed streams).
	KindFormat

	// KindArgument covers invalid tool arguments, such as a filter column
	// that does not exist in the file.
	KindArgument

	// KindTransport covers relay failures: timeouts, connection errors and
	// responses that do not have the expected shape.
	KindTransport
)

// String returns the wire name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindStore:
		return "store"
	case KindFormat:
		return "format"
	case KindArgument:
		return "argument"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinel errors, one per kind. An *Error matches its kind's sentinel
// with errors.Is.
var (
	ErrStore     = errors.New("store fault")
	ErrFormat    = errors.New("invalid format")
	ErrArgument  = errors.New("invalid argument")
	ErrTransport = errors.New("transport fault")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindStore:
		return ErrStore
	case KindFormat:
		return ErrFormat
	case KindArgument:
		return ErrArgument
	case KindTransport:
		return ErrTransport
	default:
		return nil
	}
}

// Error is a classified tool failure. Message is what callers see in the
// error envelope; Err is the underlying cause, kept for logging.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// FormatError reports bytes that could not be decoded as format, for
// example "Invalid CSV format: record on line 3: wrong number of fields".
func FormatError(format string, cause error) *Error {
	return &Error{
		Kind:    KindFormat,
		Message: fmt.Sprintf("Invalid %s format: %v", format, cause),
		Err:     cause,
	}
}

// TransportError reports a relay failure.
func TransportError(message string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: cause}
}

// ArgumentError describes a single invalid tool argument.
type ArgumentError struct {
	Field   string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s: %s", e.Field, e.Message)
}

func (e *ArgumentError) Unwrap() error {
	return ErrArgument
}

// Classify converts any error into an *Error. Already classified errors
// are returned unchanged. Argument errors keep their field message;
// context deadlines become transport faults; anything else is treated
// as a store fault carrying the error text.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var le *Error
	if errors.As(err, &le) {
		return le
	}

	var ae *ArgumentError
	if errors.As(err, &ae) {
		return &Error{Kind: KindArgument, Message: ae.Error(), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	return &Error{Kind: KindStore, Message: err.Error(), Err: err}
}
