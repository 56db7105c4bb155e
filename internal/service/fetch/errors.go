package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies an upstream failure for retry and HTTP mapping decisions.
type Kind int

const (
	// KindTransient covers network errors and 5xx responses.
	KindTransient Kind = iota
	// KindRateLimited covers 429 responses and provider throttling.
	KindRateLimited
	// KindNotFound covers unknown symbols and 404 responses.
	KindNotFound
	// KindTimeout covers deadline exceeded against the provider.
	KindTimeout
	// KindFatal covers malformed responses and auth failures.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// Error is an upstream failure tagged with its kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError tags err with a kind and operation.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind; untagged errors count as transient.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// IsNotFound reports whether err is an unknown-symbol failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}
