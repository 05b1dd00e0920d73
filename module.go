package accelacceptance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
)

var Controller = resource.NewModel("viamdemo", "accel-acceptance-test", "controller")

func init() {
	resource.RegisterService(generic.API, Controller,
		resource.Registration[resource.Resource, *Config]{
			Constructor: newAccelTestController,
		},
	)
}

type Config struct {
	Board     string            `json:"board,omitempty"`
	I2CBus    string            `json:"i2c_bus,omitempty"`
	SlowClimb string            `json:"slow_climb,omitempty"`
	SharpTurn string            `json:"sharp_turn,omitempty"`
	QuickDrop string            `json:"quick_drop,omitempty"`
	PowerPins map[string]string `json:"power_pins,omitempty"` // rail name -> board pin, defaults to the rail name
	Simulate  bool              `json:"simulate,omitempty"`   // run against an in-memory DUT instead of hardware

	PowerRail      string `json:"power_rail,omitempty"`
	BusFrequencyHz int    `json:"bus_frequency_hz,omitempty"`
	SettleDelayMs  int    `json:"settle_delay_ms,omitempty"`
}

func (cfg *Config) Validate(path string) ([]string, []string, error) {
	if cfg.BusFrequencyHz < 0 {
		return nil, nil, fmt.Errorf("%s: bus_frequency_hz must not be negative", path)
	}
	if cfg.SettleDelayMs < 0 {
		return nil, nil, fmt.Errorf("%s: settle_delay_ms must not be negative", path)
	}
	if cfg.Simulate {
		return nil, nil, nil
	}
	if cfg.Board == "" {
		return nil, nil, fmt.Errorf("%s: board is required", path)
	}
	if cfg.I2CBus == "" {
		return nil, nil, fmt.Errorf("%s: i2c_bus is required", path)
	}
	if cfg.SlowClimb == "" {
		return nil, nil, fmt.Errorf("%s: slow_climb is required", path)
	}
	if cfg.SharpTurn == "" {
		return nil, nil, fmt.Errorf("%s: sharp_turn is required", path)
	}
	if cfg.QuickDrop == "" {
		return nil, nil, fmt.Errorf("%s: quick_drop is required", path)
	}
	return []string{cfg.Board, cfg.SlowClimb, cfg.SharpTurn, cfg.QuickDrop}, nil, nil
}

// TestConfig applies the optional overrides to DefaultTestConfig.
func (cfg *Config) TestConfig() TestConfig {
	tc := DefaultTestConfig()
	if cfg.PowerRail != "" {
		tc.PowerRail = cfg.PowerRail
	}
	if cfg.BusFrequencyHz > 0 {
		tc.BusFrequencyHz = cfg.BusFrequencyHz
	}
	if cfg.SettleDelayMs > 0 {
		tc.SettleDelay = time.Duration(cfg.SettleDelayMs) * time.Millisecond
	}
	return tc
}

func (cfg *Config) actuators() map[string]string {
	return map[string]string{
		SlowClimb.Command(): cfg.SlowClimb,
		SharpTurn.Command(): cfg.SharpTurn,
		QuickDrop.Command(): cfg.QuickDrop,
	}
}

type accelTestController struct {
	resource.AlwaysRebuild

	name    resource.Name
	logger  logging.Logger
	cfg     *Config
	testCfg TestConfig
	fixture Fixture

	mu        sync.Mutex
	running   bool
	runCount  int
	last      *Outcome
	lastRunAt time.Time

	cancelCtx  context.Context
	cancelFunc func()
}

func newAccelTestController(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*Config](rawConf)
	if err != nil {
		return nil, err
	}

	return NewController(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewController(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *Config, logger logging.Logger) (resource.Resource, error) {
	var fixture Fixture
	if conf.Simulate {
		tc := conf.TestConfig()
		fixture = simulatedBench(tc)
		logger.Infof("controller using simulated DUT on %s rail (simulate=true)", tc.PowerRail)
	} else {
		vf, err := newViamFixture(deps, conf.Board, conf.I2CBus, conf.PowerPins, conf.actuators(), logger)
		if err != nil {
			return nil, err
		}
		fixture = vf
	}

	return newController(name, conf, fixture, logger), nil
}

func newController(name resource.Name, conf *Config, fixture Fixture, logger logging.Logger) *accelTestController {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	return &accelTestController{
		name:       name,
		logger:     logger,
		cfg:        conf,
		testCfg:    conf.TestConfig(),
		fixture:    fixture,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}
}

func (s *accelTestController) Name() resource.Name {
	return s.name
}

func (s *accelTestController) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	command, ok := cmd["command"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'command' field")
	}

	switch command {
	case "run_test":
		return s.handleRunTest(ctx)
	case "status":
		return s.GetState(), nil
	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}
}

func (s *accelTestController) handleRunTest(ctx context.Context) (map[string]interface{}, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("test run already in progress")
	}
	s.running = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.cancelCtx, cancel)
	defer stop()

	out := NewTester(s.testCfg, s.fixture, s.logger).Run(runCtx)

	s.mu.Lock()
	s.running = false
	s.runCount++
	s.last = &out
	s.lastRunAt = time.Now()
	s.mu.Unlock()

	return outcomeMap(out), nil
}

// runSnapshot is a consistent copy of the controller's run bookkeeping.
type runSnapshot struct {
	Running   bool
	RunCount  int
	Last      *Outcome
	LastRunAt time.Time
}

func (s *accelTestController) snapshot() runSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := runSnapshot{Running: s.running, RunCount: s.runCount, LastRunAt: s.lastRunAt}
	if s.last != nil {
		last := *s.last
		snap.Last = &last
	}
	return snap
}

// GetState reports whether a run is in progress and the verdict of the last run.
func (s *accelTestController) GetState() map[string]interface{} {
	snap := s.snapshot()

	state := map[string]interface{}{
		"state":     "idle",
		"run_count": snap.RunCount,
	}
	if snap.Running {
		state["state"] = "running"
	}
	if snap.Last != nil {
		for k, v := range outcomeMap(*snap.Last) {
			state[k] = v
		}
		state["last_run_at"] = snap.LastRunAt.UTC().Format(time.RFC3339)
	}
	return state
}

func outcomeMap(out Outcome) map[string]interface{} {
	return map[string]interface{}{
		"run_id":         out.RunID,
		"passed":         out.Passed,
		"failure_reason": out.FailureReason,
		"elapsed_sec":    out.Elapsed.Seconds(),
		"stage":          out.Stage.String(),
		"summary":        out.Summary(),
	}
}

func (s *accelTestController) Close(context.Context) error {
	s.cancelFunc()
	return nil
}
