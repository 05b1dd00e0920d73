package accelacceptance

import "fmt"

// Axis indexes per-axis tables.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists every axis in the order checks are evaluated.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// AxisSample is one acceleration reading in g.
type AxisSample struct {
	X, Y, Z float64
}

func (s AxisSample) Get(a Axis) float64 {
	switch a {
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	default:
		return s.Z
	}
}

// Sub returns the per-axis difference s - other.
func (s AxisSample) Sub(other AxisSample) AxisSample {
	return AxisSample{X: s.X - other.X, Y: s.Y - other.Y, Z: s.Z - other.Z}
}

func (s AxisSample) String() string {
	return fmt.Sprintf("{x:%.3fg y:%.3fg z:%.3fg}", s.X, s.Y, s.Z)
}

// RawSample holds signed counts in x, y, z order.
type RawSample [3]int16

// ConvertSample scales raw counts to g.
func ConvertSample(raw RawSample, scale float64) AxisSample {
	return AxisSample{
		X: float64(raw[AxisX]) * scale,
		Y: float64(raw[AxisY]) * scale,
		Z: float64(raw[AxisZ]) * scale,
	}
}

type boundKind int

const (
	boundClosed boundKind = iota
	boundAbove
	boundBelow
)

// Bound is either a closed interval or a one-sided open limit.
type Bound struct {
	kind     boundKind
	Min, Max float64
}

// Between returns the closed interval [min, max]. It panics if min > max.
func Between(min, max float64) Bound {
	if min > max {
		panic(fmt.Sprintf("invalid band [%g, %g]", min, max))
	}
	return Bound{kind: boundClosed, Min: min, Max: max}
}

// Above admits values strictly greater than v.
func Above(v float64) Bound {
	return Bound{kind: boundAbove, Min: v}
}

// Below admits values strictly less than v.
func Below(v float64) Bound {
	return Bound{kind: boundBelow, Max: v}
}

func (b Bound) Admits(v float64) bool {
	switch b.kind {
	case boundAbove:
		return v > b.Min
	case boundBelow:
		return v < b.Max
	default:
		return b.Min <= v && v <= b.Max
	}
}

func (b Bound) String() string {
	switch b.kind {
	case boundAbove:
		return fmt.Sprintf("> %gg", b.Min)
	case boundBelow:
		return fmt.Sprintf("< %gg", b.Max)
	default:
		return fmt.Sprintf("[%g, %g]g", b.Min, b.Max)
	}
}
