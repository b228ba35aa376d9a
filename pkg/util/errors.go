// Package util provides logging helpers, path expansion, and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the install workflow. Every failure surfaced by the
// workflow unwraps to exactly one of these.
var (
	ErrValidation     = errors.New("validation failed")
	ErrDriverNotFound = errors.New("no driver registered for device OS")
	ErrConnect        = errors.New("cannot connect to device")
	ErrLoad           = errors.New("cannot load config")
	ErrDiff           = errors.New("cannot diff config")
	ErrCommit         = errors.New("cannot install config")
	ErrClose          = errors.New("cannot close device connection")
)

// StepError tags a failure with the workflow step that produced it and the
// sentinel classifying it. Nothing is retried: a StepError is terminal for
// the run.
type StepError struct {
	Step string // human-readable step description, e.g. "retrieving running config"
	Kind error  // one of the sentinel errors above
	Err  error  // underlying cause
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches the step's sentinel classification,
// so errors.Is(err, util.ErrCommit) works on a wrapped commit failure.
func (e *StepError) Is(target error) bool {
	return target == e.Kind
}

// NewStepError creates a step-tagged error.
func NewStepError(kind error, step string, cause error) *StepError {
	return &StepError{Step: step, Kind: kind, Err: cause}
}

// ValidationError represents one or more parameter validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error from messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder accumulates validation failures so a caller sees all
// missing parameters at once rather than one per run.
type ValidationBuilder struct {
	errors []string
}

// Require adds message when condition is false.
func (v *ValidationBuilder) Require(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted failure unconditionally.
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if any failure was recorded.
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the accumulated validation error, or nil.
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
