package main

import (
	"accelacceptance"

	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
)

func main() {
	module.ModularMain(
		resource.APIModel{API: generic.API, Model: accelacceptance.Controller},
		resource.APIModel{API: sensor.API, Model: accelacceptance.OutcomeSensor},
		resource.APIModel{API: sensor.API, Model: accelacceptance.Accelerometer},
	)
}
