package accelacceptance

import (
	"context"
	"errors"
	"fmt"

	"go.viam.com/rdk/components/board"
	toggleswitch "go.viam.com/rdk/components/switch"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
)

// actuatorTriggerPosition is the switch position that starts a motion.
const actuatorTriggerPosition = 2

// i2cHandle is the subset of an rdk I2C handle the fixture uses.
type i2cHandle interface {
	Write(ctx context.Context, tx []byte) error
	Read(ctx context.Context, count int) ([]byte, error)
	ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error)
	Close() error
}

type i2cOpener func(addr byte) (i2cHandle, error)

// viamFixture drives the bench through robot resources: board GPIO pins enable power
// rails, a linux I2C bus reaches the DUT and one switch per motion profile commands
// the actuator.
type viamFixture struct {
	logger logging.Logger

	board     board.Board
	powerPins map[string]string
	busName   string
	actuators map[string]toggleswitch.Switch

	openBus func(name string) (i2cOpener, error)
	bus     i2cOpener
}

// newViamFixture resolves the board and the actuator switches (command -> switch name)
// from deps. actuators may be empty for fixtures that never move the DUT.
func newViamFixture(deps resource.Dependencies, boardName, busName string, powerPins, actuators map[string]string, logger logging.Logger) (*viamFixture, error) {
	b, err := board.FromDependencies(deps, boardName)
	if err != nil {
		return nil, fmt.Errorf("getting board: %w", err)
	}

	switches := make(map[string]toggleswitch.Switch, len(actuators))
	for command, name := range actuators {
		sw, err := toggleswitch.FromDependencies(deps, name)
		if err != nil {
			return nil, fmt.Errorf("getting %s actuator switch: %w", command, err)
		}
		switches[command] = sw
	}

	return &viamFixture{
		logger:    logger,
		board:     b,
		powerPins: powerPins,
		busName:   busName,
		actuators: switches,
		openBus:   openI2CBus,
	}, nil
}

func (f *viamFixture) railPin(rail string) (board.GPIOPin, error) {
	name := rail
	if pin, ok := f.powerPins[rail]; ok {
		name = pin
	}
	pin, err := f.board.GPIOPinByName(name)
	if err != nil {
		return nil, fmt.Errorf("getting pin %q for rail %s: %w", name, rail, err)
	}
	return pin, nil
}

func (f *viamFixture) PowerOn(ctx context.Context, rail string) error {
	pin, err := f.railPin(rail)
	if err != nil {
		return err
	}
	return pin.Set(ctx, true, nil)
}

func (f *viamFixture) PowerOff(ctx context.Context, rail string) error {
	pin, err := f.railPin(rail)
	if err != nil {
		return err
	}
	return pin.Set(ctx, false, nil)
}

// BusSetup opens the configured bus. The pins and speed are fixed by the board's
// device tree, so they are only logged.
func (f *viamFixture) BusSetup(ctx context.Context, dataPin, clockPin string, frequencyHz int) error {
	bus, err := f.openBus(f.busName)
	if err != nil {
		return fmt.Errorf("opening i2c bus %q: %w", f.busName, err)
	}
	f.bus = bus
	f.logger.Infof("i2c bus %q ready (sda=%s scl=%s, requested %d Hz)", f.busName, dataPin, clockPin, frequencyHz)
	return nil
}

func (f *viamFixture) BusTransact(ctx context.Context, addr byte, write []byte, respLen int) (resp []byte, err error) {
	if f.bus == nil {
		return nil, errors.New("i2c bus not set up")
	}
	if len(write) == 0 {
		return nil, errors.New("empty i2c write")
	}
	h, err := f.bus(addr)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch {
	case respLen == 0:
		return nil, h.Write(ctx, write)
	case len(write) == 1:
		return h.ReadBlockData(ctx, write[0], uint8(respLen))
	default:
		if err := h.Write(ctx, write); err != nil {
			return nil, err
		}
		return h.Read(ctx, respLen)
	}
}

func (f *viamFixture) Actuate(ctx context.Context, command string) error {
	sw, ok := f.actuators[command]
	if !ok {
		return fmt.Errorf("no actuator configured for %q", command)
	}
	return sw.SetPosition(ctx, actuatorTriggerPosition, nil)
}
