package browser

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// TeardownError is a failure while closing a page or context. It is never
// allowed to replace a test's verdict.
type TeardownError struct {
	Resource string
	Err      error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("failed to release %s: %v", e.Resource, e.Err)
}

func (e *TeardownError) Unwrap() error {
	return e.Err
}

// Close closes c and wraps any failure in a TeardownError.
func Close(resource string, c io.Closer) error {
	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil {
		return &TeardownError{Resource: resource, Err: err}
	}
	return nil
}

// Release closes c, logging and swallowing any failure.
func Release(log *zap.Logger, resource string, c io.Closer) {
	if err := Close(resource, c); err != nil {
		log.Warn("teardown failed", zap.String("resource", resource), zap.Error(err))
	}
}
