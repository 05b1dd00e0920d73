package accelacceptance

import (
	"context"
	"fmt"
	"sync"

	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
)

var Accelerometer = resource.NewModel("viamdemo", "accel-acceptance-test", "accelerometer")

func init() {
	resource.RegisterComponent(sensor.API, Accelerometer,
		resource.Registration[sensor.Sensor, *AccelerometerConfig]{
			Constructor: newAccelSensor,
		},
	)
}

type AccelerometerConfig struct {
	Board           string            `json:"board,omitempty"`             // required unless simulated: board driving the power rail
	I2CBus          string            `json:"i2c_bus,omitempty"`           // required unless simulated: bus the ADXL345 sits on
	PowerRail       string            `json:"power_rail,omitempty"`        // default "3V3"
	PowerPins       map[string]string `json:"power_pins,omitempty"`        // rail name -> board pin
	UseSimulatedDUT bool              `json:"use_simulated_dut,omitempty"` // optional: in-memory sensor instead of hardware
}

func (cfg *AccelerometerConfig) Validate(path string) ([]string, []string, error) {
	if cfg.UseSimulatedDUT {
		return nil, nil, nil
	}
	if cfg.Board == "" {
		return nil, nil, fmt.Errorf("%s: board is required", path)
	}
	if cfg.I2CBus == "" {
		return nil, nil, fmt.Errorf("%s: i2c_bus is required", path)
	}
	return []string{cfg.Board}, nil, nil
}

// accelSensor takes single on-demand readings from the ADXL345. The sensor is powered
// and configured on first use and powered off on Close.
type accelSensor struct {
	resource.AlwaysRebuild

	name    resource.Name
	logger  logging.Logger
	cfg     TestConfig
	fixture Fixture

	mu    sync.Mutex
	dev   *adxl345
	ready bool
}

func newAccelSensor(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (sensor.Sensor, error) {
	conf, err := resource.NativeConfig[*AccelerometerConfig](rawConf)
	if err != nil {
		return nil, err
	}

	tc := DefaultTestConfig()
	if conf.PowerRail != "" {
		tc.PowerRail = conf.PowerRail
	}

	var fixture Fixture
	if conf.UseSimulatedDUT {
		fixture = simulatedBench(tc)
		logger.Infof("accelerometer using simulated DUT (use_simulated_dut=true)")
	} else {
		vf, err := newViamFixture(deps, conf.Board, conf.I2CBus, conf.PowerPins, nil, logger)
		if err != nil {
			return nil, err
		}
		fixture = vf
		logger.Infof("accelerometer on i2c bus %q at 0x%02X", conf.I2CBus, tc.DeviceAddress)
	}

	return newAccelSensorWithFixture(rawConf.ResourceName(), tc, fixture, logger), nil
}

func newAccelSensorWithFixture(name resource.Name, tc TestConfig, f Fixture, logger logging.Logger) *accelSensor {
	s := &accelSensor{
		name:    name,
		logger:  logger,
		cfg:     tc,
		fixture: f,
	}
	s.dev = newADXL345(f, &s.cfg, nil)
	return s
}

func (s *accelSensor) Name() resource.Name {
	return s.name
}

// prepare must be called with s.mu held.
func (s *accelSensor) prepare(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if err := s.fixture.PowerOn(ctx, s.cfg.PowerRail); err != nil {
		return fmt.Errorf("powering on %s rail: %w", s.cfg.PowerRail, err)
	}
	err := s.fixture.BusSetup(ctx, s.cfg.DataPin, s.cfg.ClockPin, s.cfg.BusFrequencyHz)
	if err == nil {
		err = s.dev.Configure(ctx)
	}
	if err != nil {
		if perr := s.fixture.PowerOff(ctx, s.cfg.PowerRail); perr != nil {
			s.logger.Warnf("powering off %s rail: %v", s.cfg.PowerRail, perr)
		}
		return fmt.Errorf("preparing accelerometer: %w", err)
	}
	s.ready = true
	return nil
}

func (s *accelSensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	raw, err := s.dev.ReadRaw(ctx)
	if err != nil {
		s.release(ctx)
		return nil, err
	}
	sample := ConvertSample(raw, s.cfg.Scale)

	return map[string]interface{}{
		"x_g":   sample.X,
		"y_g":   sample.Y,
		"z_g":   sample.Z,
		"raw_x": int(raw[AxisX]),
		"raw_y": int(raw[AxisY]),
		"raw_z": int(raw[AxisZ]),
	}, nil
}

func (s *accelSensor) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	command, ok := cmd["command"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'command' field")
	}

	switch command {
	case "self_test":
		return s.handleSelfTest(ctx)
	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}
}

func (s *accelSensor) handleSelfTest(ctx context.Context) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	res, err := runSelfTest(ctx, s.dev)
	if err != nil {
		s.release(ctx)
		return nil, err
	}

	delta := res.Delta()
	result := map[string]interface{}{
		"passed":         true,
		"failure_reason": "",
		"delta_x_g":      delta.X,
		"delta_y_g":      delta.Y,
		"delta_z_g":      delta.Z,
	}
	if err := EvaluateSelfTest(res, s.cfg.SelfTestBands); err != nil {
		result["passed"] = false
		result["failure_reason"] = err.Error()
	}
	s.logger.Infof("self-test delta %v (passed=%v)", delta, result["passed"])
	return result, nil
}

// release powers the sensor off after a failed exchange so the next call configures it
// from scratch. Must be called with s.mu held.
func (s *accelSensor) release(ctx context.Context) {
	s.ready = false
	if err := s.fixture.PowerOff(context.WithoutCancel(ctx), s.cfg.PowerRail); err != nil {
		s.logger.Warnf("powering off %s rail: %v", s.cfg.PowerRail, err)
	}
}

func (s *accelSensor) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil
	}
	s.ready = false
	return s.fixture.PowerOff(ctx, s.cfg.PowerRail)
}
