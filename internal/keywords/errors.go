package keywords

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/themizzi/shopcheck/internal/browser"
)

// Sentinels for errors.Is.
var (
	ErrPreconditionNotMet = errors.New("precondition not met")
	ErrAssertionFailed    = errors.New("assertion failed")
)

// PreconditionError means an element never reached the state an interaction
// needs.
type PreconditionError struct {
	Selector string
	State    browser.ElementState
	Timeout  time.Duration
	Err      error
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("element %s not %s within %s", e.Selector, e.State, e.Timeout)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PreconditionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPreconditionNotMet}
	}
	return []error{ErrPreconditionNotMet, e.Err}
}

// AssertionError means the page was reachable but showed the wrong thing.
type AssertionError struct {
	What     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %q, got %q", e.What, e.Expected, e.Actual)
}

func (e *AssertionError) Unwrap() error {
	return ErrAssertionFailed
}

func mismatch(what string, expected, actual any) error {
	return &AssertionError{What: what, Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
}

// RedactSecret keeps a short prefix of a secret for log correlation.
func RedactSecret(s string) string {
	r := []rune(s)
	switch {
	case strings.TrimSpace(s) == "":
		return "(empty)"
	case len(r) < 4:
		return "***"
	default:
		return string(r[:3]) + "***"
	}
}
