package accelacceptance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// motionPollInterval bounds how long Actuate waits between context checks.
const motionPollInterval = 100 * time.Millisecond

// PeriphConfig maps bench names onto host GPIO lines and I2C buses.
type PeriphConfig struct {
	I2CBus string // empty selects the first registered bus

	RailPins     map[string]string // rail name -> enable line
	ActuatorPins map[string]string // actuator command -> start line
	// MotionDonePin rises when the actuator has finished a motion.
	MotionDonePin string
}

func DefaultPeriphConfig() PeriphConfig {
	return PeriphConfig{
		RailPins: map[string]string{"3V3": "GPIO17"},
		ActuatorPins: map[string]string{
			SlowClimb.Command(): "GPIO22",
			SharpTurn.Command(): "GPIO23",
			QuickDrop.Command(): "GPIO24",
		},
		MotionDonePin: "GPIO25",
	}
}

// PeriphFixture drives a bench wired directly to the host's GPIO header and I2C bus.
type PeriphFixture struct {
	cfg    PeriphConfig
	logger logging.Logger

	pinByName func(name string) gpio.PinIO
	openBus   func(name string) (i2c.BusCloser, error)
	bus       i2c.BusCloser
}

// NewPeriphFixture loads the host drivers and returns a fixture for cfg.
func NewPeriphFixture(cfg PeriphConfig, logger logging.Logger) (*PeriphFixture, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing host drivers: %w", err)
	}
	return newPeriphFixture(cfg, logger, gpioreg.ByName, i2creg.Open), nil
}

func newPeriphFixture(cfg PeriphConfig, logger logging.Logger, pinByName func(string) gpio.PinIO, openBus func(string) (i2c.BusCloser, error)) *PeriphFixture {
	return &PeriphFixture{cfg: cfg, logger: logger, pinByName: pinByName, openBus: openBus}
}

func (f *PeriphFixture) line(table map[string]string, kind, key string) (gpio.PinIO, error) {
	name, ok := table[key]
	if !ok {
		return nil, fmt.Errorf("no %s line configured for %q", kind, key)
	}
	p := f.pinByName(name)
	if p == nil {
		return nil, fmt.Errorf("%s line %q not found", kind, name)
	}
	return p, nil
}

func (f *PeriphFixture) PowerOn(ctx context.Context, rail string) error {
	p, err := f.line(f.cfg.RailPins, "rail", rail)
	if err != nil {
		return err
	}
	return p.Out(gpio.High)
}

func (f *PeriphFixture) PowerOff(ctx context.Context, rail string) error {
	p, err := f.line(f.cfg.RailPins, "rail", rail)
	if err != nil {
		return err
	}
	return p.Out(gpio.Low)
}

func (f *PeriphFixture) BusSetup(ctx context.Context, dataPin, clockPin string, frequencyHz int) error {
	bus, err := f.openBus(f.cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("opening i2c bus %q: %w", f.cfg.I2CBus, err)
	}
	if err := bus.SetSpeed(physic.Frequency(frequencyHz) * physic.Hertz); err != nil {
		return multierr.Append(fmt.Errorf("setting bus speed to %d Hz: %w", frequencyHz, err), bus.Close())
	}
	sda, scl := dataPin, clockPin
	if p, ok := bus.(i2c.Pins); ok {
		sda, scl = pinLabel(p.SDA(), dataPin), pinLabel(p.SCL(), clockPin)
	}
	f.logger.Infof("i2c %s: sda=%s scl=%s at %d Hz", bus, sda, scl, frequencyHz)
	f.bus = bus
	return nil
}

// pinLabel names a bus pin by its host line when the driver reports one.
func pinLabel(p gpio.PinIO, configured string) string {
	if p == nil || p == gpio.INVALID {
		return configured
	}
	return fmt.Sprintf("%s (%s)", p, configured)
}

func (f *PeriphFixture) BusTransact(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error) {
	if f.bus == nil {
		return nil, errors.New("i2c bus not set up")
	}
	var resp []byte
	if respLen > 0 {
		resp = make([]byte, respLen)
	}
	if err := f.bus.Tx(uint16(addr), write, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Actuate raises the command's start line and waits for the motion-done line to rise.
func (f *PeriphFixture) Actuate(ctx context.Context, command string) (err error) {
	start, err := f.line(f.cfg.ActuatorPins, "actuator", command)
	if err != nil {
		return err
	}
	done := f.pinByName(f.cfg.MotionDonePin)
	if done == nil {
		return fmt.Errorf("motion-done line %q not found", f.cfg.MotionDonePin)
	}
	if err := done.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return fmt.Errorf("arming motion-done line: %w", err)
	}

	if err := start.Out(gpio.High); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, start.Out(gpio.Low))
	}()

	for !done.WaitForEdge(motionPollInterval) {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the bus and drops every actuator line.
func (f *PeriphFixture) Close() error {
	var err error
	for command := range f.cfg.ActuatorPins {
		if p, lerr := f.line(f.cfg.ActuatorPins, "actuator", command); lerr == nil {
			err = multierr.Append(err, p.Out(gpio.Low))
		}
	}
	if f.bus != nil {
		err = multierr.Append(err, f.bus.Close())
		f.bus = nil
	}
	return err
}
