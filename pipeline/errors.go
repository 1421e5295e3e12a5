package pipeline

import (
	"errors"
	"strings"

	"github.com/onnwee/prodscout/geniusapi"
)

// ErrNotFound reports that Genius has no album matching the query. It is a
// business outcome, not an infrastructure fault, but the caller still refunds.
var ErrNotFound = errors.New("album not found")

// FailureKind buckets a failed run for user messaging and refund policy.
type FailureKind int

const (
	// FailureNotFound: upstream has no matching album.
	FailureNotFound FailureKind = iota
	// FailureRateLimited: upstream denied access (bot detection / throttling);
	// worth a "try later" hint.
	FailureRateLimited
	// FailureTransient: any other infrastructure fault.
	FailureTransient
)

// String returns a human-readable name for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureRateLimited:
		return "rate_limited"
	case FailureTransient:
		return "transient"
	default:
		return "transient"
	}
}

// Classify buckets an error from Run. Typed errors win; otherwise the error
// signature decides, since upstream denial often surfaces only as a wrapped
// HTTP status string.
func Classify(err error) FailureKind {
	if errors.Is(err, ErrNotFound) {
		return FailureNotFound
	}
	if errors.Is(err, geniusapi.ErrAccessDenied) {
		return FailureRateLimited
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "403") ||
		strings.Contains(lower, "429") ||
		strings.Contains(lower, "access denied") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "cloudflare") {
		return FailureRateLimited
	}
	return FailureTransient
}
