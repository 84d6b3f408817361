package pipeline

import "fmt"

// InternalError marks a middle-end invariant violation: a missing
// layout, an unknown symbol, an expression shape a stage cannot place.
// These are compiler bugs, not user errors, and they never enter the
// diagnostic bag.
type InternalError struct {
	Stage string
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal fault in %s: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func internal(stage string, err error) error {
	return &InternalError{Stage: stage, Err: err}
}
