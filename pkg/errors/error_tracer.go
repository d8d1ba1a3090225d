package errors

import "github.com/pkg/errors"

// StackTracer is an interface that requires a StackTrace method.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

// ErrorTracer wraps an error with a message while preserving its stack trace.
type ErrorTracer struct {
	Message string
	Err     error
}

// TracerFromError creates a new ErrorTracer from an existing error,
// attaching a stack trace if it does not carry one yet.
func TracerFromError(err error) *ErrorTracer {
	tracer := &ErrorTracer{Message: err.Error(), Err: err}
	if _, ok := err.(StackTracer); !ok {
		tracer.Err = errors.WithStack(err)
	}
	return tracer
}

func (e *ErrorTracer) Error() string {
	return e.Message
}

func (e *ErrorTracer) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack trace of the underlying error if it implements StackTracer.
func (e *ErrorTracer) StackTrace() errors.StackTrace {
	if errWithStack, ok := e.Err.(StackTracer); ok {
		return errWithStack.StackTrace()
	}
	return nil
}
