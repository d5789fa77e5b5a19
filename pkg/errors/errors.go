// Package errors provides the error types used across the brickpick system.
// It combines sentinel errors for programmatic checks with typed errors that
// carry the context needed to report per-source failures without aborting a
// matching run.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// It's an alias for the standard library errors.As.
var As = errors.As

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed indicates a set inventory could not be fetched from the
	// remote catalog.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrSourceUnavailable indicates a selected part source could not be read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCacheWrite indicates a freshly fetched entry could not be persisted.
	ErrCacheWrite = errors.New("cache write failed")

	// ErrCorrupt indicates a persisted file failed structural validation.
	ErrCorrupt = errors.New("persisted data corrupt")

	// ErrAPIKeyRequired indicates that an API key is required but not provided.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrRateLimited indicates that the catalog API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// FetchError reports a failure to fetch a set inventory from the remote
// catalog. It is recoverable: aggregation skips the set and continues.
type FetchError struct {
	SetNumber  string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching set %s failed (status %d): %s", e.SetNumber, e.StatusCode, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("fetching set %s failed: %s", e.SetNumber, e.Message)
	}
	return fmt.Sprintf("fetching set %s failed: %v", e.SetNumber, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *FetchError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrFetchFailed || target == ErrRateLimited
	}
	return target == ErrFetchFailed
}

// NewFetchError creates a new FetchError wrapping a transport failure.
func NewFetchError(setNumber string, err error) *FetchError {
	return &FetchError{SetNumber: setNumber, Err: err}
}

// SourceError reports a manual part source that could not be read. Like
// FetchError it never aborts the whole aggregation.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}

// CacheWriteError reports that a freshly fetched set inventory could not be
// persisted. The in-memory copy remains usable; the next process start will
// re-fetch.
type CacheWriteError struct {
	SetNumber string
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("writing cache entry for set %s to %s: %v", e.SetNumber, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *CacheWriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *CacheWriteError) Is(target error) bool {
	return target == ErrCacheWrite
}

// CorruptError reports a persisted file that failed structural validation.
// Callers treat the file as empty/missing rather than failing.
type CorruptError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CorruptError) Error() string {
	return fmt.Sprintf("persisted file %s is corrupt: %v", e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

// ValidationError represents a validation failure at an ingestion boundary.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Helper functions for error checking.

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFetchFailed checks if an error is a fetch failure.
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsSourceUnavailable checks if an error is an unreadable source.
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsCacheWrite checks if an error is a cache persistence failure.
func IsCacheWrite(err error) bool {
	return errors.Is(err, ErrCacheWrite)
}

// IsCorrupt checks if an error indicates a corrupt persisted file.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
