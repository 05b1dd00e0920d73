package accelacceptance

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errNoAck = errors.New("no ack from device")

// DUTProfile describes the counts a simulated ADXL345 reports.
type DUTProfile struct {
	Rail     string
	Address  byte
	Baseline RawSample
	// SelfTestShift is added to the baseline while the self-test bit is set.
	SelfTestShift RawSample
	Motions       map[string]RawSample
}

// HealthyDUT returns a profile that passes every check of DefaultTestConfig: 1g on z
// at rest and datasheet-typical self-test shifts.
func HealthyDUT() DUTProfile {
	return DUTProfile{
		Rail:          "3V3",
		Address:       0x53,
		Baseline:      RawSample{0, 0, 256},
		SelfTestShift: RawSample{-269, -269, -218},
		Motions: map[string]RawSample{
			SlowClimb.Command(): {0, 0, 1795},
			SharpTurn.Command(): {1795, 1795, 256},
			QuickDrop.Command(): {0, 0, -2565},
		},
	}
}

// simulatedBench returns a healthy simulated DUT wired to the rail and address tc uses.
func simulatedBench(tc TestConfig) *SimulatedFixture {
	profile := HealthyDUT()
	profile.Rail = tc.PowerRail
	profile.Address = tc.DeviceAddress
	return NewSimulatedFixture(profile)
}

// SimulatedFixture is an in-memory bench with a single ADXL345 on its bus. The sensor
// only answers while its rail is powered and the bus is set up.
type SimulatedFixture struct {
	mu      sync.Mutex
	profile DUTProfile

	powered   bool
	busReady  bool
	registers map[byte]byte
	motion    string

	powerOffs int
	actuated  []string
}

func NewSimulatedFixture(profile DUTProfile) *SimulatedFixture {
	return &SimulatedFixture{profile: profile, registers: map[byte]byte{}}
}

func (f *SimulatedFixture) PowerOn(ctx context.Context, rail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rail != f.profile.Rail {
		return fmt.Errorf("unknown rail %q", rail)
	}
	f.powered = true
	return nil
}

func (f *SimulatedFixture) PowerOff(ctx context.Context, rail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.powerOffs++
	if rail != f.profile.Rail {
		return fmt.Errorf("unknown rail %q", rail)
	}
	f.powered = false
	f.busReady = false
	f.registers = map[byte]byte{}
	f.motion = ""
	return nil
}

func (f *SimulatedFixture) BusSetup(ctx context.Context, dataPin, clockPin string, frequencyHz int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if frequencyHz <= 0 {
		return fmt.Errorf("invalid bus frequency %d", frequencyHz)
	}
	f.busReady = true
	return nil
}

func (f *SimulatedFixture) BusTransact(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.busReady {
		return nil, errors.New("bus not set up")
	}
	if !f.powered || addr != f.profile.Address || len(write) == 0 {
		return nil, errNoAck
	}

	if respLen == 0 {
		for i, v := range write[1:] {
			f.registers[write[0]+byte(i)] = v
		}
		return nil, nil
	}
	if write[0] != RegDataX0 {
		return make([]byte, respLen), nil
	}
	buf := EncodeSample(f.current())
	if respLen < len(buf) {
		return buf[:respLen], nil
	}
	return append(buf, make([]byte, respLen-len(buf))...), nil
}

func (f *SimulatedFixture) current() RawSample {
	if raw, ok := f.profile.Motions[f.motion]; ok {
		return raw
	}
	raw := f.profile.Baseline
	if f.registers[RegDataFormat]&dataFormatSelfTst != 0 {
		for i := range raw {
			raw[i] += f.profile.SelfTestShift[i]
		}
	}
	return raw
}

func (f *SimulatedFixture) Actuate(ctx context.Context, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profile.Motions[command]; !ok {
		return fmt.Errorf("unknown actuator command %q", command)
	}
	f.actuated = append(f.actuated, command)
	f.motion = command
	return nil
}

// Actuations returns the commands issued so far.
func (f *SimulatedFixture) Actuations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actuated...)
}

func (f *SimulatedFixture) PowerOffCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.powerOffs
}
