package accelacceptance

import "encoding/binary"

// ADXL345 register map.
const (
	RegBWRate     byte = 0x2C
	RegPowerCtl   byte = 0x2D
	RegDataFormat byte = 0x31
	RegDataX0     byte = 0x32
)

const (
	// DataRate800Hz is the BW_RATE code for 800 Hz output at 400 kHz I2C.
	DataRate800Hz byte = 0x0D

	// full resolution, +-16g
	dataFormatNormal  byte = 0x0B
	dataFormatSelfTst byte = 0x80

	powerCtlMeasure byte = 0x08
)

// SampleLength is the size of a DATAX0..DATAZ1 burst read.
const SampleLength = 6

// RegisterWrite is a single register assignment.
type RegisterWrite struct {
	Register byte
	Value    byte
}

// Bytes returns the two-byte I2C payload for the write.
func (w RegisterWrite) Bytes() []byte {
	return []byte{w.Register, w.Value}
}

func DataRateWrite(code byte) RegisterWrite {
	return RegisterWrite{Register: RegBWRate, Value: code}
}

// DataFormatWrite selects full-resolution mode with the self-test bit set or cleared.
func DataFormatWrite(selfTest bool) RegisterWrite {
	v := dataFormatNormal
	if selfTest {
		v |= dataFormatSelfTst
	}
	return RegisterWrite{Register: RegDataFormat, Value: v}
}

func MeasureModeWrite() RegisterWrite {
	return RegisterWrite{Register: RegPowerCtl, Value: powerCtlMeasure}
}

// ConfigureSequence returns the writes that bring the sensor into measurement, in order.
func ConfigureSequence(dataRate byte) []RegisterWrite {
	return []RegisterWrite{
		DataRateWrite(dataRate),
		DataFormatWrite(false),
		MeasureModeWrite(),
	}
}

// DecodeSample unpacks a DATAX0 burst into x, y, z counts.
func DecodeSample(buf []byte) (RawSample, error) {
	if len(buf) != SampleLength {
		return RawSample{}, &MalformedResponseError{Got: len(buf), Want: SampleLength}
	}
	var raw RawSample
	for i := range raw {
		raw[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return raw, nil
}

// EncodeSample is the inverse of DecodeSample.
func EncodeSample(raw RawSample) []byte {
	buf := make([]byte, SampleLength)
	for i, v := range raw {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return buf
}
