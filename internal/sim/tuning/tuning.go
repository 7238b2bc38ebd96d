package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the control-loop knobs. Values mirror configs/tuning.yaml.
type Tuning struct {
	TurnForce             float64 `yaml:"turn_force"`
	MoveForce             float64 `yaml:"move_force"`
	TurnStoppingThreshold float64 `yaml:"turn_stopping_threshold"`
	MoveStoppingThreshold float64 `yaml:"move_stopping_threshold"`

	NumAttempts         int `yaml:"num_attempts"`
	JointMotionMaxSteps int `yaml:"joint_motion_max_steps"`

	ReachPrecision  float64 `yaml:"reach_precision"`
	CaptureDistance float64 `yaml:"capture_distance"`
	CaptureRadius   float64 `yaml:"capture_radius"`
	Grip            float64 `yaml:"grip"`

	HeavyMass         float64 `yaml:"heavy_mass"`
	ContainerCapacity int     `yaml:"container_capacity"`

	StopDrag             float64 `yaml:"stop_drag"`
	CoastAngularVelocity float64 `yaml:"coast_angular_velocity"`
	CoastVelocity        float64 `yaml:"coast_velocity"`

	ObjectSettleVelocity float64 `yaml:"object_settle_velocity"`
	ObjectSettleMaxSteps int     `yaml:"object_settle_max_steps"`
}

// Defaults are the baby-avatar values measured against the build.
func Defaults() Tuning {
	return Tuning{
		TurnForce:             1000,
		MoveForce:             80,
		TurnStoppingThreshold: 0.15,
		MoveStoppingThreshold: 0.35,
		NumAttempts:           200,
		JointMotionMaxSteps:   250,
		ReachPrecision:        0.05,
		CaptureDistance:       0.1,
		CaptureRadius:         0.1,
		Grip:                  1000,
		HeavyMass:             90,
		ContainerCapacity:     3,
		StopDrag:              1000,
		CoastAngularVelocity:  0.3,
		CoastVelocity:         0.1,
		ObjectSettleVelocity:  0.1,
		ObjectSettleMaxSteps:  200,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
