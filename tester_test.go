package accelacceptance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.viam.com/rdk/logging"
)

func TestTester_Run(t *testing.T) {
	t.Run("healthy DUT passes every stage", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		tester, sleeps := newTestTester(t, f)

		out := tester.Run(context.Background())
		if !out.Passed {
			t.Fatalf("expected pass, got %q", out.Summary())
		}
		if out.FailureReason != "" {
			t.Errorf("expected empty failure reason, got %q", out.FailureReason)
		}
		if out.Stage != StageQuickDropChecked {
			t.Errorf("expected stage %v, got %v", StageQuickDropChecked, out.Stage)
		}
		if out.RunID == "" {
			t.Error("expected run id to be set")
		}
		if !strings.HasPrefix(out.Summary(), "TEST PASSED in ") {
			t.Errorf("unexpected summary %q", out.Summary())
		}

		want := []string{"slow_climb", "sharp_turn", "quick_drop"}
		if strings.Join(f.actuations, ",") != strings.Join(want, ",") {
			t.Errorf("actuations: expected %v, got %v", want, f.actuations)
		}
		if f.powerOffs != 1 {
			t.Errorf("expected 1 power off, got %d", f.powerOffs)
		}
		if len(*sleeps) != 3 {
			t.Errorf("expected 3 settle delays, got %v", *sleeps)
		}
		for _, d := range *sleeps {
			if d != 100*time.Millisecond {
				t.Errorf("expected 100ms settle delay, got %v", d)
			}
		}
	})

	t.Run("writes registers in protocol order", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		tester, _ := newTestTester(t, f)
		tester.Run(context.Background())

		want := []RegisterWrite{
			{RegBWRate, 0x0D},
			{RegDataFormat, 0x0B},
			{RegPowerCtl, 0x08},
			{RegDataFormat, 0x0B},
			{RegDataFormat, 0x8B},
			{RegDataFormat, 0x0B},
		}
		if len(f.writes) != len(want) {
			t.Fatalf("expected %d writes, got %v", len(want), f.writes)
		}
		for i := range want {
			if f.writes[i] != want[i] {
				t.Errorf("write %d: expected %+v, got %+v", i, want[i], f.writes[i])
			}
		}
	})

	t.Run("powers up and sets up the bus before touching the sensor", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		tester, _ := newTestTester(t, f)
		tester.Run(context.Background())

		if len(f.calls) < 3 {
			t.Fatalf("too few calls: %v", f.calls)
		}
		if f.calls[0] != "power_on:3V3" {
			t.Errorf("first call: expected power_on:3V3, got %s", f.calls[0])
		}
		if f.calls[1] != "bus_setup:MCU_DIO1,MCU_DIO2,400000" {
			t.Errorf("second call: expected bus setup, got %s", f.calls[1])
		}
		if last := f.calls[len(f.calls)-1]; last != "power_off:3V3" {
			t.Errorf("last call: expected power_off:3V3, got %s", last)
		}
	})

	t.Run("self-test failure issues no actuator command", func(t *testing.T) {
		dut := HealthyDUT()
		dut.SelfTestShift = RawSample{-269, -100, -218}
		f := newFakeFixture(dut)
		tester, _ := newTestTester(t, f)

		out := tester.Run(context.Background())
		if out.Passed {
			t.Fatal("expected failure")
		}
		if len(f.actuations) != 0 {
			t.Errorf("expected no actuations, got %v", f.actuations)
		}
		if !strings.Contains(out.FailureReason, "self-test failed on y axis") {
			t.Errorf("unexpected failure reason %q", out.FailureReason)
		}
		if out.Stage != StageConfigured {
			t.Errorf("expected stage %v, got %v", StageConfigured, out.Stage)
		}
		if f.powerOffs != 1 {
			t.Errorf("expected 1 power off, got %d", f.powerOffs)
		}
	})

	t.Run("self-test still restores normal mode when evaluation fails", func(t *testing.T) {
		dut := HealthyDUT()
		dut.SelfTestShift = RawSample{}
		f := newFakeFixture(dut)
		tester, _ := newTestTester(t, f)
		tester.Run(context.Background())

		last := f.writes[len(f.writes)-1]
		if last != DataFormatWrite(false) {
			t.Errorf("expected final write to restore normal mode, got %+v", last)
		}
	})

	t.Run("power-on failure still powers off once", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		f.PowerOnFunc = func(ctx context.Context, rail string) error {
			return errors.New("rail fault")
		}
		tester, _ := newTestTester(t, f)

		out := tester.Run(context.Background())
		if out.Passed {
			t.Fatal("expected failure")
		}
		if !strings.Contains(out.FailureReason, "powering on 3V3 rail: rail fault") {
			t.Errorf("unexpected failure reason %q", out.FailureReason)
		}
		if out.Stage != StageIdle {
			t.Errorf("expected stage idle, got %v", out.Stage)
		}
		if f.powerOffs != 1 {
			t.Errorf("expected 1 power off, got %d", f.powerOffs)
		}
		for _, c := range f.calls {
			if strings.HasPrefix(c, "bus_setup") || strings.HasPrefix(c, "write") {
				t.Errorf("unexpected call after power-on failure: %s", c)
			}
		}
	})

	t.Run("motion failure skips remaining profiles", func(t *testing.T) {
		dut := HealthyDUT()
		dut.Motions[SharpTurn.Command()] = RawSample{1795, 1000, 256}
		f := newFakeFixture(dut)
		tester, _ := newTestTester(t, f)

		out := tester.Run(context.Background())
		if out.Passed {
			t.Fatal("expected failure")
		}
		if strings.Join(f.actuations, ",") != "slow_climb,sharp_turn" {
			t.Errorf("expected quick_drop to be skipped, got %v", f.actuations)
		}
		if out.Stage != StageSlowClimbChecked {
			t.Errorf("expected stage %v, got %v", StageSlowClimbChecked, out.Stage)
		}
		if !strings.Contains(out.FailureReason, "sharp turn check failed: y-axis 3.90g not > 5g") {
			t.Errorf("unexpected failure reason %q", out.FailureReason)
		}
		if f.powerOffs != 1 {
			t.Errorf("expected 1 power off, got %d", f.powerOffs)
		}
	})

	t.Run("actuator failure is terminal", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		f.ActuateFunc = func(ctx context.Context, command string) error {
			return errors.New("actuator jammed")
		}
		tester, _ := newTestTester(t, f)

		out := tester.Run(context.Background())
		if out.Passed {
			t.Fatal("expected failure")
		}
		if len(f.actuations) != 1 {
			t.Errorf("expected a single actuation attempt, got %v", f.actuations)
		}
		if !strings.Contains(out.FailureReason, "actuating slow_climb: actuator jammed") {
			t.Errorf("unexpected failure reason %q", out.FailureReason)
		}
	})

	t.Run("power-off failure does not change the verdict", func(t *testing.T) {
		logger, logs := logging.NewObservedTestLogger(t)
		f := newFakeFixture(HealthyDUT())
		f.PowerOffFunc = func(ctx context.Context, rail string) error {
			return errors.New("relay stuck")
		}
		tester := NewTester(DefaultTestConfig(), f, logger)
		tester.sleep = func(context.Context, time.Duration) error { return nil }

		out := tester.Run(context.Background())
		if !out.Passed {
			t.Fatalf("expected pass, got %q", out.Summary())
		}
		if f.powerOffs != 1 {
			t.Errorf("expected 1 power off, got %d", f.powerOffs)
		}
		if logs.FilterMessageSnippet("relay stuck").Len() != 1 {
			t.Error("expected power-off failure to be logged")
		}
	})

	t.Run("cancelled context fails the run and still tears down", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		tester := NewTester(DefaultTestConfig(), f, logging.NewTestLogger(t))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out := tester.Run(ctx)
		if out.Passed {
			t.Fatal("expected failure")
		}
		if !strings.Contains(out.FailureReason, context.Canceled.Error()) {
			t.Errorf("unexpected failure reason %q", out.FailureReason)
		}
		if f.powerOffs != 1 {
			t.Errorf("expected 1 power off, got %d", f.powerOffs)
		}
	})

	t.Run("elapsed time is measured before teardown", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		tester, _ := newTestTester(t, f)
		t0 := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
		clock := []time.Time{t0, t0.Add(1500 * time.Millisecond)}
		tester.now = func() time.Time {
			v := clock[0]
			clock = clock[1:]
			return v
		}

		out := tester.Run(context.Background())
		if out.Elapsed != 1500*time.Millisecond {
			t.Errorf("expected 1.5s elapsed, got %v", out.Elapsed)
		}
		if out.Summary() != "TEST PASSED in 1.50 sec" {
			t.Errorf("unexpected summary %q", out.Summary())
		}
	})
}

func TestTester_Sequence(t *testing.T) {
	t.Run("short sample read is a malformed response", func(t *testing.T) {
		f := newFakeFixture(HealthyDUT())
		f.BusTransactFunc = func(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error) {
			if respLen > 0 {
				return make([]byte, 5), nil
			}
			return f.SimulatedFixture.BusTransact(ctx, addr, write, respLen)
		}
		tester, _ := newTestTester(t, f)

		err := tester.sequence(context.Background())
		var malformed *MalformedResponseError
		if !errors.As(err, &malformed) {
			t.Fatalf("expected MalformedResponseError, got %v", err)
		}
		if malformed.Got != 5 {
			t.Errorf("expected 5 bytes reported, got %d", malformed.Got)
		}
		if len(f.actuations) != 0 {
			t.Errorf("expected no actuations, got %v", f.actuations)
		}
	})

	t.Run("bus failure is a transport error", func(t *testing.T) {
		nack := errors.New("nack")
		f := newFakeFixture(HealthyDUT())
		f.BusTransactFunc = func(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error) {
			return nil, nack
		}
		tester, _ := newTestTester(t, f)

		err := tester.sequence(context.Background())
		var transport *TransportError
		if !errors.As(err, &transport) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if !errors.Is(err, nack) {
			t.Errorf("expected error to wrap the bus failure, got %v", err)
		}
		if tester.stage != StagePoweredUp {
			t.Errorf("expected stage %v, got %v", StagePoweredUp, tester.stage)
		}
	})

	t.Run("passing self-test scenario proceeds to motion checks", func(t *testing.T) {
		dut := dutWithSamples(AxisSample{}, AxisSample{X: -1.0, Y: -1.0, Z: -0.8})
		f := newFakeFixture(dut)
		tester, _ := newTestTester(t, f)

		if err := tester.sequence(context.Background()); err != nil {
			t.Fatalf("sequence failed: %v", err)
		}
		if len(f.actuations) != 3 {
			t.Errorf("expected 3 actuations, got %v", f.actuations)
		}
	})

	t.Run("self-test reports the first failing axis", func(t *testing.T) {
		dut := dutWithSamples(AxisSample{}, AxisSample{X: 0, Y: 0, Z: 0})
		f := newFakeFixture(dut)
		tester, _ := newTestTester(t, f)

		err := tester.sequence(context.Background())
		var st *SelfTestFailure
		if !errors.As(err, &st) {
			t.Fatalf("expected SelfTestFailure, got %v", err)
		}
		if st.Axis != AxisX {
			t.Errorf("expected x axis, got %v", st.Axis)
		}
	})
}

func TestOutcome_Summary(t *testing.T) {
	pass := Outcome{Passed: true, Elapsed: 1234 * time.Millisecond}
	if got := pass.Summary(); got != "TEST PASSED in 1.23 sec" {
		t.Errorf("unexpected pass summary %q", got)
	}

	fail := Outcome{Elapsed: 500 * time.Millisecond, FailureReason: "quick drop check failed: z-axis -7.00g not < -8g"}
	if got := fail.Summary(); got != "TEST FAILED in 0.50 sec due to quick drop check failed: z-axis -7.00g not < -8g" {
		t.Errorf("unexpected fail summary %q", got)
	}
}
