// Package retry implements the classified-error and backoff discipline
// shared by every consumer, built on github.com/cenkalti/backoff/v4.
package retry

import "fmt"

// Kind classifies an error raised anywhere in the pipeline so the consumer
// runtime knows whether to retry or halt.
type Kind int

const (
	// KindUnknown is what ClassOf reports for an error that carries no
	// classification. It is not retryable.
	KindUnknown Kind = iota

	// ChainUnavailable: transient upstream node or transport issue. Retry.
	ChainUnavailable
	// ChainMalformed: an event/extrinsic cannot be parsed or violates
	// expected shape. Fatal.
	ChainMalformed
	// StorageTransient: destination store timeout / connection reset. Retry.
	StorageTransient
	// StorageFatal: destination store returns a non-retryable error. Fatal.
	StorageFatal
	// SchemaError: DDL failed on startup. Fatal.
	SchemaError
	// InvariantViolation: internal consistency check failed. Fatal.
	InvariantViolation
	// ConfigError: required configuration missing or invalid. Fatal.
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case ChainUnavailable:
		return "ChainUnavailable"
	case ChainMalformed:
		return "ChainMalformed"
	case StorageTransient:
		return "StorageTransient"
	case StorageFatal:
		return "StorageFatal"
	case SchemaError:
		return "SchemaError"
	case InvariantViolation:
		return "InvariantViolation"
	case ConfigError:
		return "ConfigError"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the runtime should back off and retry, as
// opposed to halting for operator intervention.
func (k Kind) Retryable() bool {
	return k == ChainUnavailable || k == StorageTransient
}

// Error is a classified error carrying the kind plus the operation it
// was raised in.
type Error struct {
	Kind      Kind
	Operation string
	Err       error
}

func (e *Error) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified error.
func New(kind Kind, operation string, err error) *Error {
	return &Error{Kind: kind, Operation: operation, Err: err}
}

// ClassOf extracts the Kind from err if it (or something it wraps) is a
// *Error, defaulting to KindUnknown otherwise.
func ClassOf(err error) Kind {
	var classified *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			classified = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if classified == nil {
		return KindUnknown
	}
	return classified.Kind
}
