package accelacceptance

import "time"

// TestConfig carries every constant a run depends on. Build it once with
// DefaultTestConfig and pass it to the components; nothing mutates it afterwards.
type TestConfig struct {
	DeviceAddress byte
	DataRate      byte
	Scale         float64 // g per LSB
	SettleDelay   time.Duration

	PowerRail      string
	DataPin        string
	ClockPin       string
	BusFrequencyHz int

	SelfTestBands  [3]Bound
	MotionCriteria [3][]Criterion
}

// DefaultTestConfig returns the acceptance limits for an ADXL345 at its alternate
// address in full-resolution mode.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		DeviceAddress: 0x53,
		DataRate:      DataRate800Hz,
		// 3.9 mg/LSB typical, datasheet range 3.5-4.3
		Scale:       0.0039,
		SettleDelay: 100 * time.Millisecond,

		PowerRail:      "3V3",
		DataPin:        "MCU_DIO1",
		ClockPin:       "MCU_DIO2",
		BusFrequencyHz: 400000,

		// datasheet typicals are -1.05g (x, y) and -0.85g (z), widened for supply variation
		SelfTestBands: [3]Bound{
			AxisX: Between(-1.2, -0.9),
			AxisY: Between(-1.2, -0.9),
			AxisZ: Between(-1.0, -0.7),
		},
		MotionCriteria: [3][]Criterion{
			SlowClimb: {
				{Axis: AxisY, Bound: Between(-1.0, 1.0)},
				{Axis: AxisZ, Bound: Between(6.0, 8.0)},
			},
			SharpTurn: {
				{Axis: AxisX, Bound: Above(5.0)},
				{Axis: AxisY, Bound: Above(5.0)},
			},
			QuickDrop: {
				{Axis: AxisZ, Bound: Below(-8.0)},
			},
		},
	}
}
