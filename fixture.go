package accelacceptance

import "context"

// Fixture is the test-bench hardware a run drives: power rails, the I2C bus to the
// DUT and the motion actuator.
type Fixture interface {
	PowerOn(ctx context.Context, rail string) error
	PowerOff(ctx context.Context, rail string) error
	BusSetup(ctx context.Context, dataPin, clockPin string, frequencyHz int) error
	// BusTransact writes to the device and, when respLen > 0, reads respLen bytes back
	// in the same transaction.
	BusTransact(ctx context.Context, addr byte, write []byte, respLen int) ([]byte, error)
	// Actuate returns once the commanded motion has completed.
	Actuate(ctx context.Context, command string) error
}
