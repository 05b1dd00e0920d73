// Command accel-test runs the ADXL345 acceptance sequence on a bench wired to this
// host and prints a single PASSED/FAILED line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"accelacceptance"

	"go.viam.com/rdk/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	logger := logging.NewBlankLogger("accel-test")
	logger.AddAppender(logging.NewWriterAppender(os.Stderr))

	fixture, err := accelacceptance.NewPeriphFixture(accelacceptance.DefaultPeriphConfig(), logger)
	if err != nil {
		out := accelacceptance.Outcome{Elapsed: time.Since(start), FailureReason: err.Error()}
		fmt.Println(out.Summary())
		return 1
	}
	defer func() {
		if err := fixture.Close(); err != nil {
			logger.Warnf("releasing fixture: %v", err)
		}
	}()

	out := accelacceptance.NewTester(accelacceptance.DefaultTestConfig(), fixture, logger).Run(context.Background())
	fmt.Println(out.Summary())
	if !out.Passed {
		return 1
	}
	return 0
}
