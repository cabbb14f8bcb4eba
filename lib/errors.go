package lib

import (
	"context"
	"errors"

	"github.com/gravitational/trace"
)

// IsCanceled returns true if the error is a context cancellation,
// however deep it is buried in the trace chain.
func IsCanceled(err error) bool {
	return errors.Is(trace.Unwrap(err), context.Canceled)
}

// IsDeadline returns true if the error is a context deadline.
func IsDeadline(err error) bool {
	return errors.Is(trace.Unwrap(err), context.DeadlineExceeded)
}
