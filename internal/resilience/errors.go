package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Kind labels a terminal provider rejection. Kinds map one-to-one onto the
// rejection categories the three providers expose.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindValidation   Kind = "validation"
	KindInvalidEmail Kind = "invalid_email"
	KindConflict     Kind = "conflict"
	KindUnknown      Kind = "unknown"
)

// Transient wraps an error that is safe to retry (429, 5xx, network blip).
type Transient struct {
	Err        error
	StatusCode int
}

func (e *Transient) Error() string { return e.Err.Error() }

func (e *Transient) Unwrap() error { return e.Err }

// NewTransient marks err as retryable, recording the HTTP status if known.
func NewTransient(err error, statusCode int) *Transient {
	return &Transient{Err: err, StatusCode: statusCode}
}

// Rejected wraps a terminal provider rejection. It is never retried; the
// pipeline records it against the single contact and stage it hit.
type Rejected struct {
	Kind Kind
	Err  error
}

func (e *Rejected) Error() string { return e.Err.Error() }

func (e *Rejected) Unwrap() error { return e.Err }

// NewRejected marks err as a terminal rejection of the given kind.
func NewRejected(kind Kind, err error) *Rejected {
	return &Rejected{Kind: kind, Err: err}
}

// RejectionKind extracts the rejection kind from an error chain. The second
// return is false when the chain holds no Rejected error.
func RejectionKind(err error) (Kind, bool) {
	var re *Rejected
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// IsTransient reports whether err (or anything in its chain) is retryable:
// an explicit Transient marker or a recognizable network-level failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *Transient
	if errors.As(err, &te) {
		return true
	}

	// An explicit rejection is terminal even if a network error sits
	// underneath it.
	var re *Rejected
	if errors.As(err, &re) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped HTTP client errors lose their type; fall back to matching.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsRetryableStatus reports whether an HTTP status code indicates a
// transient server-side condition.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
