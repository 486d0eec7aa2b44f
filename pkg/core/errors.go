package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoSuchElement is returned by a Device when a locator matches nothing.
var ErrNoSuchElement = errors.New("no such element")

// Categorized is implemented by every workflow error so reports can group them.
type Categorized interface {
	Category() ErrorCategory
}

// CategoryOf returns the category of the first Categorized error in err's chain.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var c Categorized
	if errors.As(err, &c) {
		return c.Category()
	}
	return ErrCategoryNone
}

// SessionInitError is returned when no driver session could be created.
// It is fatal for the whole run.
type SessionInitError struct {
	Attempts int
	Cause    error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("failed to initialize driver session after %d attempt(s): %v", e.Attempts, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *SessionInitError) Unwrap() error { return e.Cause }

// Category implements Categorized.
func (e *SessionInitError) Category() ErrorCategory { return ErrCategoryConnection }

// StepNotFoundError reports a required element that never appeared.
type StepNotFoundError struct {
	Step    string
	Locator Locator
	Cause   error
}

func (e *StepNotFoundError) Error() string {
	msg := fmt.Sprintf("%s: element not found (%s)", e.Step, e.Locator)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *StepNotFoundError) Unwrap() error { return e.Cause }

// Category implements Categorized.
func (e *StepNotFoundError) Category() ErrorCategory { return ErrCategoryElement }

// TimeoutError reports a wait that expired before its condition held.
type TimeoutError struct {
	Condition string
	Locator   Locator
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Locator.IsZero() {
		return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
	}
	return fmt.Sprintf("timed out after %s waiting for %s (%s)", e.Timeout, e.Condition, e.Locator)
}

// Category implements Categorized.
func (e *TimeoutError) Category() ErrorCategory { return ErrCategoryTimeout }

// AssertionMismatchError reports a detected outcome that differs from the expectation.
// Expected is empty when no outcome was expected at all.
type AssertionMismatchError struct {
	Expected string
	Detected []string
}

func (e *AssertionMismatchError) Error() string {
	detected := "none"
	if len(e.Detected) > 0 {
		detected = strings.Join(e.Detected, ", ")
	}
	if e.Expected == "" {
		return fmt.Sprintf("expected no condition to be detected, but detected: %s", detected)
	}
	return fmt.Sprintf("expected %q to be detected, but detected: %s", e.Expected, detected)
}

// Category implements Categorized.
func (e *AssertionMismatchError) Category() ErrorCategory { return ErrCategoryAssertion }

// ConfigError reports invalid configuration.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ConfigError) Unwrap() error { return e.Cause }

// Category implements Categorized.
func (e *ConfigError) Category() ErrorCategory { return ErrCategoryConfig }
