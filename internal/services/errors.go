package services

import "fmt"

// ValidationError reports a request the client can fix. Its message is safe
// to return to the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// InferenceError wraps a failure inside the model. The wrapped error is for
// logs only.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
