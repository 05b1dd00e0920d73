//go:build linux

package accelacceptance

import "go.viam.com/rdk/components/board/genericlinux/buses"

func openI2CBus(name string) (i2cOpener, error) {
	bus, err := buses.NewI2cBus(name)
	if err != nil {
		return nil, err
	}
	return func(addr byte) (i2cHandle, error) {
		return bus.OpenHandle(addr)
	}, nil
}
