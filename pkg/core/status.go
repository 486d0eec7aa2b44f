package core

import "fmt"

// Status is the terminal outcome of one scenario.
type Status int

const (
	StatusPass Status = iota // Workflow completed and the expected outcome was observed
	StatusFail               // Any error, or an outcome mismatch
	StatusSkip               // Not executed (suite aborted or cancelled)
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "SKIP"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status as its report label.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a report label back into a Status.
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "PASS":
		*s = StatusPass
	case "FAIL":
		*s = StatusFail
	case "SKIP":
		*s = StatusSkip
	default:
		return fmt.Errorf("unknown status %q", string(text))
	}
	return nil
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Detected outcome did not match the expectation
	ErrCategoryTimeout                         // A wait ran out of time
	ErrCategoryElement                         // A required UI element could not be located
	ErrCategoryConnection                      // Driver session could not be established
	ErrCategoryConfig                          // Invalid configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryElement:
		return "element"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}
