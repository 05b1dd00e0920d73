package accelacceptance

import (
	"fmt"
	"strings"
)

// TransportError wraps a bus-level failure reported by the fixture.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("i2c %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a data read of the wrong length.
type MalformedResponseError struct {
	Got, Want int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed sample: got %d bytes, want %d", e.Got, e.Want)
}

// SelfTestFailure identifies the first axis whose self-test delta left its band.
type SelfTestFailure struct {
	Axis  Axis
	Delta float64
	Band  Bound
}

func (e *SelfTestFailure) Error() string {
	return fmt.Sprintf("self-test failed on %s axis: difference of %.2fg is not in %s", e.Axis, e.Delta, e.Band)
}

// AxisViolation is one unmet criterion of a motion profile.
type AxisViolation struct {
	Axis     Axis
	Observed float64
	Expected Bound
}

func (v AxisViolation) String() string {
	return fmt.Sprintf("%s-axis %.2fg not %s", v.Axis, v.Observed, v.Expected)
}

// MotionCheckFailure reports every unmet criterion of a single profile.
type MotionCheckFailure struct {
	Profile    MotionProfile
	Violations []AxisViolation
}

func (e *MotionCheckFailure) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s check failed: %s", e.Profile, strings.Join(parts, "; "))
}
