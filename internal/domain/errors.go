// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// FaultKind discriminates the failure classes the save pipeline branches on.
// Faults are tagged at the point of failure so downstream routing is
// exhaustive and does not depend on incidental error subclassing.
type FaultKind string

// Possible fault kinds.
const (
	// FaultConnectivity indicates the network peer could not be reached at
	// all. This is the only kind that triggers enqueue-for-later-retry.
	FaultConnectivity FaultKind = "connectivity"

	// FaultStructural indicates the peer was reached but rejected the
	// request (e.g. an unknown deck name). Permanent for that attempt.
	FaultStructural FaultKind = "structural"

	// FaultValidation indicates card content failed validation before any
	// network call. Never retried, never queued.
	FaultValidation FaultKind = "validation"

	// FaultCredential indicates a missing or malformed API key. Never
	// retried.
	FaultCredential FaultKind = "credential"

	// FaultTransientGeneration indicates a connectivity or timeout failure
	// during an LLM call. Retried with bounded backoff.
	FaultTransientGeneration FaultKind = "transient_generation"

	// FaultPermanentGeneration indicates a malformed LLM response or an
	// explicit API error. Not retried.
	FaultPermanentGeneration FaultKind = "permanent_generation"
)

// Fault is a tagged error produced at the point of failure.
type Fault struct {
	Kind FaultKind
	Err  error
}

// Error implements the error interface for Fault.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (f *Fault) Unwrap() error {
	return f.Err
}

// NewFault wraps err with the given fault kind.
func NewFault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}

// Faultf creates a Fault with a formatted message.
func Faultf(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the fault kind carried by err, if any. When err wraps
// multiple Faults, the outermost kind wins.
func KindOf(err error) (FaultKind, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given fault kind.
func IsKind(err error, kind FaultKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
