// Package errx declares the typed error variants the engine returns.
// Internal packages only ever construct and return these; cmd/omnipeak is
// the sole place that inspects the concrete type.
package errx

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports a bad command-line option: unknown command, missing
// required file, contradictory flags, FDR outside (0,1), negative gap,
// mismatched path lists.
type ConfigError struct {
	Option string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error for %q: %s", e.Option, e.Cause)
	}
	return fmt.Sprintf("configuration error for %q", e.Option)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError wraps cause with the offending option name.
func NewConfigError(option string, cause error) *ConfigError {
	return &ConfigError{Option: option, Cause: errors.WithStack(cause)}
}

// InputError reports an unreadable file, mismatched chromosome sizes, or
// entirely empty treatment coverage.
type InputError struct {
	Path  string
	Cause error
}

func (e *InputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("input error reading %q: %s", e.Path, e.Cause)
	}
	return fmt.Sprintf("input error: %s", e.Cause)
}

func (e *InputError) Unwrap() error { return e.Cause }

func NewInputError(path string, cause error) *InputError {
	return &InputError{Path: path, Cause: errors.WithStack(cause)}
}

// ModelIncompatibleError names the one field on which a persisted model
// disagrees with the requested configuration.
type ModelIncompatibleError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *ModelIncompatibleError) Error() string {
	return fmt.Sprintf("persisted model incompatible: field %q wants %q, model has %q",
		e.Field, e.Expected, e.Actual)
}

// CancelledError reports cooperative cancellation; it must never be
// conflated with an actual failure by callers.
type CancelledError struct {
	Stage string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("cancelled during %s", e.Stage)
}

// IsCancelled reports whether err (or something it wraps) is a CancelledError.
func IsCancelled(err error) bool {
	var c *CancelledError
	return errors.As(err, &c)
}

// CacheIOError reports a failed cache read/write; writers retry once after
// deleting the partial file before surfacing this as fatal.
type CacheIOError struct {
	Path    string
	Cause   error
	Retried bool
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache I/O error on %q (retried=%v): %s", e.Path, e.Retried, e.Cause)
}

func (e *CacheIOError) Unwrap() error { return e.Cause }

// NewCacheIOError wraps cause as a first-attempt (non-retried) cache I/O
// failure; callers that retry once and still fail set Retried themselves.
func NewCacheIOError(path string, cause error) *CacheIOError {
	return &CacheIOError{Path: path, Cause: errors.WithStack(cause)}
}
