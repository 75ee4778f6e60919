package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch so callers can decide whether the failure
// is terminal, retryable, or an active block by the remote site.
type Kind int

const (
	// KindTransport covers network failures, timeouts and unexpected HTTP
	// status codes (5xx and the like).
	KindTransport Kind = iota
	// KindNotFound is a terminal 404 from the remote site.
	KindNotFound
	// KindRateLimited means the retry budget was exhausted while the remote
	// kept answering 429 (or a rate-limit marker body).
	KindRateLimited
	// KindBlocked means an anti-bot challenge page was detected. Retrying
	// will not help, so it is surfaced as its own kind.
	KindBlocked
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindBlocked:
		return "blocked"
	default:
		return "transport"
	}
}

// Error is the error type returned by Client.Do.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a fetch error classified as NotFound.
func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

// IsBlocked reports whether err is a fetch error classified as Blocked.
func IsBlocked(err error) bool {
	return isKind(err, KindBlocked)
}

// IsRateLimited reports whether err is a fetch error classified as RateLimited.
func IsRateLimited(err error) bool {
	return isKind(err, KindRateLimited)
}

// IsTransport reports whether err is a fetch error classified as Transport.
func IsTransport(err error) bool {
	return isKind(err, KindTransport)
}

func isKind(err error, kind Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
