package frame

import "fmt"

// ExecutionError is a semantic failure while evaluating a query: unknown
// references, type mismatches, missing CRS or a rejected function argument.
type ExecutionError struct {
	Message string
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return e.Message
}

// NewExecutionError formats an ExecutionError.
func NewExecutionError(format string, args ...any) *ExecutionError {
	return &ExecutionError{Message: fmt.Sprintf(format, args...)}
}
