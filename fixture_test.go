package accelacceptance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.viam.com/rdk/logging"
)

// fakeFixture records every call and delegates to a simulated DUT unless a *Func
// hook overrides the operation.
type fakeFixture struct {
	*SimulatedFixture

	PowerOnFunc     func(ctx context.Context, rail string) error
	PowerOffFunc    func(ctx context.Context, rail string) error
	BusSetupFunc    func(ctx context.Context, dataPin, clockPin string, frequencyHz int) error
	BusTransactFunc func(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error)
	ActuateFunc     func(ctx context.Context, command string) error

	mu         sync.Mutex
	calls      []string
	writes     []RegisterWrite
	powerOffs  int
	actuations []string
}

func newFakeFixture(profile DUTProfile) *fakeFixture {
	return &fakeFixture{SimulatedFixture: NewSimulatedFixture(profile)}
}

func (f *fakeFixture) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeFixture) PowerOn(ctx context.Context, rail string) error {
	f.record("power_on:" + rail)
	if f.PowerOnFunc != nil {
		return f.PowerOnFunc(ctx, rail)
	}
	return f.SimulatedFixture.PowerOn(ctx, rail)
}

func (f *fakeFixture) PowerOff(ctx context.Context, rail string) error {
	f.record("power_off:" + rail)
	f.mu.Lock()
	f.powerOffs++
	f.mu.Unlock()
	if f.PowerOffFunc != nil {
		return f.PowerOffFunc(ctx, rail)
	}
	return f.SimulatedFixture.PowerOff(ctx, rail)
}

func (f *fakeFixture) BusSetup(ctx context.Context, dataPin, clockPin string, frequencyHz int) error {
	f.record(fmt.Sprintf("bus_setup:%s,%s,%d", dataPin, clockPin, frequencyHz))
	if f.BusSetupFunc != nil {
		return f.BusSetupFunc(ctx, dataPin, clockPin, frequencyHz)
	}
	return f.SimulatedFixture.BusSetup(ctx, dataPin, clockPin, frequencyHz)
}

func (f *fakeFixture) BusTransact(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error) {
	if respLen == 0 && len(write) == 2 {
		f.record(fmt.Sprintf("write:%02X=%02X", write[0], write[1]))
		f.mu.Lock()
		f.writes = append(f.writes, RegisterWrite{Register: write[0], Value: write[1]})
		f.mu.Unlock()
	} else {
		f.record(fmt.Sprintf("read:%02X/%d", write[0], respLen))
	}
	if f.BusTransactFunc != nil {
		return f.BusTransactFunc(ctx, addr, write, respLen)
	}
	return f.SimulatedFixture.BusTransact(ctx, addr, write, respLen)
}

func (f *fakeFixture) Actuate(ctx context.Context, command string) error {
	f.record("actuate:" + command)
	f.mu.Lock()
	f.actuations = append(f.actuations, command)
	f.mu.Unlock()
	if f.ActuateFunc != nil {
		return f.ActuateFunc(ctx, command)
	}
	return f.SimulatedFixture.Actuate(ctx, command)
}

// newTestTester returns a tester whose settle delays are recorded instead of slept.
func newTestTester(t *testing.T, f Fixture) (*Tester, *[]time.Duration) {
	t.Helper()
	tester := NewTester(DefaultTestConfig(), f, logging.NewTestLogger(t))
	var sleeps []time.Duration
	tester.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return tester, &sleeps
}

// dutWithSamples builds a profile whose readings, converted with the default scale,
// land on the given g values.
func dutWithSamples(baseline, stimulated AxisSample) DUTProfile {
	p := HealthyDUT()
	p.Baseline = countsFor(baseline)
	st := countsFor(stimulated)
	for i := range st {
		p.SelfTestShift[i] = st[i] - p.Baseline[i]
	}
	return p
}

func countsFor(s AxisSample) RawSample {
	scale := DefaultTestConfig().Scale
	round := func(g float64) int16 {
		c := g / scale
		if c < 0 {
			return int16(c - 0.5)
		}
		return int16(c + 0.5)
	}
	return RawSample{round(s.X), round(s.Y), round(s.Z)}
}
