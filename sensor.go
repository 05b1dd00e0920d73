package accelacceptance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	generic "go.viam.com/rdk/services/generic"
)

var OutcomeSensor = resource.NewModel("viamdemo", "accel-acceptance-test", "outcome-sensor")

func init() {
	resource.RegisterComponent(sensor.API, OutcomeSensor,
		resource.Registration[sensor.Sensor, *SensorConfig]{
			Constructor: newOutcomeSensor,
		},
	)
}

type SensorConfig struct {
	Controller string `json:"controller"`
}

// Validate depends on the controller by its full generic-service name.
func (cfg *SensorConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Controller == "" {
		return nil, nil, fmt.Errorf("%s: controller is required", path)
	}
	return []string{generic.Named(cfg.Controller).String()}, nil, nil
}

// runSource is implemented by the acceptance-test controller.
type runSource interface {
	snapshot() runSnapshot
}

// outcomeSensor turns the controller's last verdict into flat, numeric-friendly
// readings so data capture can chart pass rate and run duration.
type outcomeSensor struct {
	resource.AlwaysRebuild

	name       resource.Name
	logger     logging.Logger
	controller runSource
}

func newOutcomeSensor(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (sensor.Sensor, error) {
	conf, err := resource.NativeConfig[*SensorConfig](rawConf)
	if err != nil {
		return nil, err
	}

	ctrl, ok := deps[generic.Named(conf.Controller)]
	if !ok {
		return nil, fmt.Errorf("controller %q not found in dependencies", conf.Controller)
	}
	source, ok := ctrl.(runSource)
	if !ok {
		return nil, fmt.Errorf("%q is not an accel-acceptance-test controller", conf.Controller)
	}

	return &outcomeSensor{
		name:       rawConf.ResourceName(),
		logger:     logger,
		controller: source,
	}, nil
}

func (s *outcomeSensor) Name() resource.Name {
	return s.name
}

// Readings always carries running, run_count and has_result. The verdict fields are
// present once a run has finished; passed is 1 or 0.
func (s *outcomeSensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	snap := s.controller.snapshot()

	readings := map[string]interface{}{
		"running":    snap.Running,
		"run_count":  snap.RunCount,
		"has_result": snap.Last != nil,
	}
	if snap.Last == nil {
		return readings, nil
	}

	out := snap.Last
	passed := 0.0
	if out.Passed {
		passed = 1
	}
	readings["run_id"] = out.RunID
	readings["passed"] = passed
	readings["elapsed_sec"] = out.Elapsed.Seconds()
	readings["stage"] = out.Stage.String()
	readings["stage_index"] = int(out.Stage)
	readings["failure_reason"] = out.FailureReason
	readings["last_run_at"] = snap.LastRunAt.UTC().Format(time.RFC3339)
	return readings, nil
}

// DoCommand supports "summary", which returns the last run's one-line verdict.
func (s *outcomeSensor) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	command, ok := cmd["command"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'command' field")
	}
	if command != "summary" {
		return nil, fmt.Errorf("unknown command: %s", command)
	}

	snap := s.controller.snapshot()
	if snap.Last == nil {
		return nil, errors.New("no test run has finished yet")
	}
	return map[string]interface{}{
		"run_id":  snap.Last.RunID,
		"summary": snap.Last.Summary(),
	}, nil
}

func (s *outcomeSensor) Close(context.Context) error {
	return nil
}
