package impl

import (
	"fmt"
	"time"
)

// TargetError is a failure reported by the target process.
type TargetError struct {
	Message string
}

func (e *TargetError) Error() string { return e.Message }

// TimeoutError reports an operation that did not finish in time.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timeout %s exceeded", e.Op, e.Timeout)
}

// AssertionError reports an expectation that never held.
type AssertionError struct {
	What string
	Want string
	Got  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s %q, got %q", e.What, e.Want, e.Got)
}
