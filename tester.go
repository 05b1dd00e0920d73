package accelacceptance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.viam.com/rdk/logging"
)

// Stage is the last step a run completed.
type Stage int

const (
	StageIdle Stage = iota
	StagePoweredUp
	StageConfigured
	StageSelfTested
	StageSlowClimbChecked
	StageSharpTurnChecked
	StageQuickDropChecked
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StagePoweredUp:
		return "powered_up"
	case StageConfigured:
		return "configured"
	case StageSelfTested:
		return "self_tested"
	case StageSlowClimbChecked:
		return "slow_climb_checked"
	case StageSharpTurnChecked:
		return "sharp_turn_checked"
	case StageQuickDropChecked:
		return "quick_drop_checked"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Outcome is the verdict of a single run.
type Outcome struct {
	RunID         string
	Passed        bool
	FailureReason string
	Elapsed       time.Duration
	// Stage is the last step completed before the verdict.
	Stage Stage
}

// Summary renders the one-line verdict.
func (o Outcome) Summary() string {
	if o.Passed {
		return fmt.Sprintf("TEST PASSED in %.2f sec", o.Elapsed.Seconds())
	}
	return fmt.Sprintf("TEST FAILED in %.2f sec due to %s", o.Elapsed.Seconds(), o.FailureReason)
}

// Tester sequences one acceptance run against a fixture. A Tester is not safe for
// concurrent runs.
type Tester struct {
	cfg     TestConfig
	fixture Fixture
	logger  logging.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	stage Stage
}

func NewTester(cfg TestConfig, f Fixture, logger logging.Logger) *Tester {
	return &Tester{
		cfg:     cfg,
		fixture: f,
		logger:  logger,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// Run executes the whole sequence. Every failure ends the run and becomes the
// outcome's failure reason; the power rail is switched off exactly once on return.
func (t *Tester) Run(ctx context.Context) Outcome {
	start := t.now()
	out := Outcome{RunID: uuid.NewString()}
	t.stage = StageIdle
	t.logger.Infof("run %s: starting accelerometer acceptance test", out.RunID)

	defer t.teardown(ctx)

	err := t.sequence(ctx)
	out.Elapsed = t.now().Sub(start)
	out.Stage = t.stage
	if err != nil {
		out.FailureReason = err.Error()
		t.logger.Errorf("run %s: failed after %s: %v", out.RunID, t.stage, err)
		return out
	}
	out.Passed = true
	t.logger.Infof("run %s: passed in %v", out.RunID, out.Elapsed)
	return out
}

func (t *Tester) sequence(ctx context.Context) error {
	if err := t.fixture.PowerOn(ctx, t.cfg.PowerRail); err != nil {
		return fmt.Errorf("powering on %s rail: %w", t.cfg.PowerRail, err)
	}
	t.advance(StagePoweredUp)

	if err := t.fixture.BusSetup(ctx, t.cfg.DataPin, t.cfg.ClockPin, t.cfg.BusFrequencyHz); err != nil {
		return &TransportError{Op: "bus setup", Err: err}
	}

	dev := newADXL345(t.fixture, &t.cfg, t.sleep)
	if err := dev.Configure(ctx); err != nil {
		return fmt.Errorf("configuring accelerometer: %w", err)
	}
	t.advance(StageConfigured)

	res, err := runSelfTest(ctx, dev)
	if err != nil {
		return err
	}
	t.logger.Debugf("self-test baseline %v, stimulated %v, delta %v", res.Baseline, res.Stimulated, res.Delta())
	if err := EvaluateSelfTest(res, t.cfg.SelfTestBands); err != nil {
		return err
	}
	t.advance(StageSelfTested)

	for _, p := range MotionProfiles {
		if err := t.checkMotion(ctx, dev, p); err != nil {
			return err
		}
		t.advance(p.checkedStage())
	}
	return nil
}

func (t *Tester) checkMotion(ctx context.Context, dev *adxl345, p MotionProfile) error {
	if err := t.fixture.Actuate(ctx, p.Command()); err != nil {
		return fmt.Errorf("actuating %s: %w", p.Command(), err)
	}
	sample, err := dev.ReadSample(ctx)
	if err != nil {
		return fmt.Errorf("reading %s sample: %w", p, err)
	}
	t.logger.Debugf("%s sample %v", p, sample)
	return CheckMotion(p, t.cfg.MotionCriteria[p], sample)
}

func (t *Tester) advance(s Stage) {
	t.stage = s
	t.logger.Debugf("stage %s", s)
}

func (t *Tester) teardown(ctx context.Context) {
	if err := t.fixture.PowerOff(context.WithoutCancel(ctx), t.cfg.PowerRail); err != nil {
		t.logger.Warnf("powering off %s rail: %v", t.cfg.PowerRail, err)
	}
}
