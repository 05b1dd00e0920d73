package accelacceptance

import "fmt"

// MotionProfile is a named actuator motion with an expected acceleration signature.
type MotionProfile int

const (
	SlowClimb MotionProfile = iota
	SharpTurn
	QuickDrop
)

// MotionProfiles lists the profiles in the order a run exercises them.
var MotionProfiles = []MotionProfile{SlowClimb, SharpTurn, QuickDrop}

func (p MotionProfile) String() string {
	switch p {
	case SlowClimb:
		return "slow climb"
	case SharpTurn:
		return "sharp turn"
	case QuickDrop:
		return "quick drop"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// Command is the actuator command identifier for the profile.
func (p MotionProfile) Command() string {
	switch p {
	case SlowClimb:
		return "slow_climb"
	case SharpTurn:
		return "sharp_turn"
	case QuickDrop:
		return "quick_drop"
	default:
		return ""
	}
}

// ParseMotionProfile maps an actuator command back to its profile.
func ParseMotionProfile(command string) (MotionProfile, error) {
	for _, p := range MotionProfiles {
		if p.Command() == command {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown motion profile %q", command)
}

func (p MotionProfile) checkedStage() Stage {
	switch p {
	case SlowClimb:
		return StageSlowClimbChecked
	case SharpTurn:
		return StageSharpTurnChecked
	default:
		return StageQuickDropChecked
	}
}

// Criterion bounds a single axis.
type Criterion struct {
	Axis  Axis
	Bound Bound
}

// CheckMotion evaluates every criterion of the profile against the sample.
func CheckMotion(profile MotionProfile, criteria []Criterion, sample AxisSample) error {
	var violations []AxisViolation
	for _, c := range criteria {
		v := sample.Get(c.Axis)
		if !c.Bound.Admits(v) {
			violations = append(violations, AxisViolation{Axis: c.Axis, Observed: v, Expected: c.Bound})
		}
	}
	if len(violations) > 0 {
		return &MotionCheckFailure{Profile: profile, Violations: violations}
	}
	return nil
}
