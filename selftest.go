package accelacceptance

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// SelfTestResult holds the readings taken with the self-test bit cleared and set.
type SelfTestResult struct {
	Baseline   AxisSample
	Stimulated AxisSample
}

func (r SelfTestResult) Delta() AxisSample {
	return r.Stimulated.Sub(r.Baseline)
}

// runSelfTest samples with self-test off, then on. Once the self-test bit has been
// written, normal mode is restored on every return path, even after cancellation.
func runSelfTest(ctx context.Context, dev *adxl345) (res SelfTestResult, err error) {
	if err := dev.SetSelfTest(ctx, false); err != nil {
		return res, fmt.Errorf("disabling self-test: %w", err)
	}
	if err := dev.settle(ctx); err != nil {
		return res, err
	}
	baseline, err := dev.ReadSample(ctx)
	if err != nil {
		return res, fmt.Errorf("reading baseline: %w", err)
	}
	res.Baseline = baseline

	if err := dev.SetSelfTest(ctx, true); err != nil {
		return res, fmt.Errorf("enabling self-test: %w", err)
	}
	defer func() {
		if rerr := dev.SetSelfTest(context.WithoutCancel(ctx), false); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("restoring normal mode: %w", rerr))
		}
	}()

	if err := dev.settle(ctx); err != nil {
		return res, err
	}
	stimulated, err := dev.ReadSample(ctx)
	if err != nil {
		return res, fmt.Errorf("reading self-test sample: %w", err)
	}
	res.Stimulated = stimulated
	return res, nil
}

// EvaluateSelfTest checks each axis delta against its band in x, y, z order and
// reports the first axis out of band.
func EvaluateSelfTest(res SelfTestResult, bands [3]Bound) error {
	delta := res.Delta()
	for _, axis := range Axes {
		d := delta.Get(axis)
		if !bands[axis].Admits(d) {
			return &SelfTestFailure{Axis: axis, Delta: d, Band: bands[axis]}
		}
	}
	return nil
}
