package spacecraft

import (
	"fmt"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
)

// RPM converts revolutions per minute to rad/s.
const RPM = 2 * 3.141592653589793 / 60

// WheelConfig describes one reaction wheel. Axis is the spin axis in the
// body frame and is normalized on Reset.
type WheelConfig struct {
	Name      string      `yaml:"name" json:"name"`
	Axis      dynamo.Vec3 `yaml:"axis" json:"axis"`
	Js        float64     `yaml:"js" json:"js"`
	OmegaInit float64     `yaml:"omega_init" json:"omega_init"`
	MaxTorque float64     `yaml:"max_torque" json:"max_torque"`
}

// DefaultWheels returns three orthogonal HR16-class wheels.
func DefaultWheels() []WheelConfig {
	return []WheelConfig{
		{Name: "RW1", Axis: dynamo.Vec3{1, 0, 0}, Js: 0.159, OmegaInit: 100 * RPM, MaxTorque: 0.2},
		{Name: "RW2", Axis: dynamo.Vec3{0, 1, 0}, Js: 0.159, OmegaInit: 200 * RPM, MaxTorque: 0.2},
		{Name: "RW3", Axis: dynamo.Vec3{0, 0, 1}, Js: 0.159, OmegaInit: 300 * RPM, MaxTorque: 0.2},
	}
}

// RWEffector is the reaction-wheel state effector attached to a spacecraft.
// Commands arrive on CmdInMsg; an unlinked or unwritten input means zero
// torque.
type RWEffector struct {
	Wheels      []WheelConfig
	CmdInMsg    engine.InMsg[RWCmdMsg]
	SpeedOutMsg *engine.Message[RWSpeedMsg]

	failed map[int]bool
}

func NewRWEffector(wheels ...WheelConfig) *RWEffector {
	ws := make([]WheelConfig, len(wheels))
	copy(ws, wheels)
	return &RWEffector{
		Wheels:      ws,
		SpeedOutMsg: engine.NewMessage[RWSpeedMsg](),
		failed:      make(map[int]bool),
	}
}

func (rw *RWEffector) NumWheels() int { return len(rw.Wheels) }

// SpinAxes returns the unit spin axes.
func (rw *RWEffector) SpinAxes() []dynamo.Vec3 {
	out := make([]dynamo.Vec3, len(rw.Wheels))
	for i, w := range rw.Wheels {
		out[i] = w.Axis.Unit()
	}
	return out
}

func (rw *RWEffector) validate() error {
	for i, w := range rw.Wheels {
		if w.Js <= 0 {
			return fmt.Errorf("%w: wheel %d (%s) has Js=%g", ErrInvalidWheel, i, w.Name, w.Js)
		}
		if w.Axis.Norm() == 0 {
			return fmt.Errorf("%w: wheel %d (%s) has a zero spin axis", ErrInvalidWheel, i, w.Name)
		}
	}
	return nil
}

// FailWheel stops a wheel from producing torque for the rest of the run.
func (rw *RWEffector) FailWheel(i int) error {
	if i < 0 || i >= len(rw.Wheels) {
		return fmt.Errorf("%w: index %d", ErrUnknownWheel, i)
	}
	rw.failed[i] = true
	return nil
}

func (rw *RWEffector) Failed(i int) bool { return rw.failed[i] }

func (rw *RWEffector) clearFaults() {
	rw.failed = make(map[int]bool)
}

// torques returns the saturated motor torques for this step.
func (rw *RWEffector) torques() dynamo.Control {
	u := make(dynamo.Control, len(rw.Wheels))
	cmd, ok := rw.CmdInMsg.Read()
	if !ok {
		return u
	}
	for i := range u {
		if i >= len(cmd.MotorTorque) || rw.failed[i] {
			continue
		}
		u[i] = cmd.MotorTorque[i]
		if m := rw.Wheels[i].MaxTorque; m > 0 {
			u[i] = max(-m, min(m, u[i]))
		}
	}
	return u
}
