//go:build !linux

package accelacceptance

import "errors"

func openI2CBus(name string) (i2cOpener, error) {
	return nil, errors.New("i2c buses are only supported on linux")
}
