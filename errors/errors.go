// Package errors provides error handling for rethink.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to CLI users
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := fit(); err != nil {
//	    return errors.Wrap(err, "failed to fit model")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "try more warmup iterations")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors for use across rethink.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested chapter, dataset, or column does not exist
	ErrNotFound = New("not found")

	// ErrInvalidSpec indicates a model specification string failed to parse or
	// referenced names that neither the data nor the parameters define
	ErrInvalidSpec = New("invalid model specification")

	// ErrCacheMiss indicates no cached fit exists for the requested key
	ErrCacheMiss = New("fit cache miss")

	// ErrDidNotConverge indicates an inference engine failed to locate the
	// posterior mode or produced a degenerate curvature estimate
	ErrDidNotConverge = New("inference did not converge")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidSpecError checks if an error is or wraps ErrInvalidSpec.
func IsInvalidSpecError(err error) bool {
	return err != nil && Is(err, ErrInvalidSpec)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidSpecError creates an invalid-spec error with a formatted message
func NewInvalidSpecError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidSpec, Newf(format, args...).Error())
}
