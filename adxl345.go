package accelacceptance

import (
	"context"
	"fmt"
	"time"
)

// adxl345 speaks the sensor's register protocol over a fixture bus.
type adxl345 struct {
	fixture Fixture
	cfg     *TestConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

func newADXL345(f Fixture, cfg *TestConfig, sleep func(context.Context, time.Duration) error) *adxl345 {
	if sleep == nil {
		sleep = sleepContext
	}
	return &adxl345{fixture: f, cfg: cfg, sleep: sleep}
}

func (a *adxl345) write(ctx context.Context, w RegisterWrite) error {
	if _, err := a.fixture.BusTransact(ctx, a.cfg.DeviceAddress, w.Bytes(), 0); err != nil {
		return &TransportError{Op: fmt.Sprintf("write 0x%02X to register 0x%02X", w.Value, w.Register), Err: err}
	}
	return nil
}

// Configure sets data rate, data format and measurement mode, then waits for the
// output filter to settle.
func (a *adxl345) Configure(ctx context.Context) error {
	for _, w := range ConfigureSequence(a.cfg.DataRate) {
		if err := a.write(ctx, w); err != nil {
			return err
		}
	}
	return a.settle(ctx)
}

func (a *adxl345) SetSelfTest(ctx context.Context, enabled bool) error {
	return a.write(ctx, DataFormatWrite(enabled))
}

func (a *adxl345) settle(ctx context.Context) error {
	return a.sleep(ctx, a.cfg.SettleDelay)
}

// ReadRaw burst-reads the six data registers.
func (a *adxl345) ReadRaw(ctx context.Context) (RawSample, error) {
	buf, err := a.fixture.BusTransact(ctx, a.cfg.DeviceAddress, []byte{RegDataX0}, SampleLength)
	if err != nil {
		return RawSample{}, &TransportError{Op: fmt.Sprintf("read register 0x%02X", RegDataX0), Err: err}
	}
	return DecodeSample(buf)
}

func (a *adxl345) ReadSample(ctx context.Context) (AxisSample, error) {
	raw, err := a.ReadRaw(ctx)
	if err != nil {
		return AxisSample{}, err
	}
	return ConvertSample(raw, a.cfg.Scale), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
	}
	return nil
}
