// Package errors provides domain-specific error types for mull.
//
// The sink distinguishes per-call failures (busy, fault, not supported),
// which never outlive the call that produced them, from the single fatal
// condition: failing to allocate the sink buffer at startup.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrBusy is returned by Open while another session is active.
	ErrBusy = errors.New("device busy")
	// ErrNotSupported is returned by every read attempt.
	ErrNotSupported = errors.New("operation not supported")
	// ErrClosed is returned when a handle is used after Close.
	ErrClosed = errors.New("handle is closed")
	// ErrInUse is returned by Shutdown while a session holds the endpoint.
	ErrInUse = errors.New("endpoint in use")

	// ErrFault matches every *FaultError.
	ErrFault = errors.New("bad address")
	// ErrAllocation matches every *AllocationError.
	ErrAllocation = errors.New("cannot allocate memory")
)

// ── Structured error types ───────────────────────────────────────────

// FaultError reports that caller-supplied memory became inaccessible
// while being copied.  The call that produced it accepted zero bytes.
type FaultError struct {
	Op  string // "write"
	Err error  // underlying cause, may be nil
}

func (e *FaultError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrFault)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrFault, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFault) hold for any FaultError.
func (e *FaultError) Is(target error) bool { return target == ErrFault }

// AllocationError reports that the sink buffer could not be set up.
// It is the only fatal error: the endpoint never becomes available.
type AllocationError struct {
	Capacity uint64 // requested capacity in bytes
	Err      error  // underlying cause
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate %d byte buffer: %v", e.Capacity, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAllocation) hold for any AllocationError.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Fault creates a FaultError for op.
func Fault(op string, err error) *FaultError {
	return &FaultError{Op: op, Err: err}
}

// Allocation creates an AllocationError for a buffer of capacity bytes.
func Allocation(capacity uint64, err error) *AllocationError {
	return &AllocationError{Capacity: capacity, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether the caller may retry the same call later
// and expect a different outcome.  Only a busy endpoint qualifies; the
// core itself never retries.
func IsRetryable(err error) bool {
	return err != nil && errors.Is(err, ErrBusy)
}

// IsFatal reports whether err prevents the endpoint from existing.
func IsFatal(err error) bool {
	return err != nil && errors.Is(err, ErrAllocation)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use mull/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
