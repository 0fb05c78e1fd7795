package logging

import (
	"github.com/pkg/errors"
)

const Stacktrace = "stacktrace"

// Unexported but considered part of the stable interface of pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ExtractStack walks down the chain of wrapped errors and returns the first errors.StackTrace it encounters.
// If no stacktraces are found, it returns nil
func ExtractStack(err error) errors.StackTrace {
	for err != nil {
		if stackErr, ok := err.(stackTracer); ok {
			return stackErr.StackTrace()
		}
		err = errors.Unwrap(err)
	}
	return nil
}
