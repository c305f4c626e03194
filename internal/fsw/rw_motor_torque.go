package fsw

import (
	"fmt"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

// RWMotorTorque maps a body torque request onto the wheels with the
// minimum-norm solution over the controlled axes.
type RWMotorTorque struct {
	ModelTag            string
	ControlAxesB        []dynamo.Vec3
	SpinAxes            []dynamo.Vec3
	VehControlInMsg     engine.InMsg[CmdTorqueMsg]
	RWMotorTorqueOutMsg *engine.Message[spacecraft.RWCmdMsg]

	cgs     [][]float64
	mapping dynamo.Mat3
}

func NewRWMotorTorque(spinAxes []dynamo.Vec3) *RWMotorTorque {
	return &RWMotorTorque{
		ModelTag:            "rwMotorTorque",
		ControlAxesB:        []dynamo.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		SpinAxes:            spinAxes,
		RWMotorTorqueOutMsg: engine.NewMessage[spacecraft.RWCmdMsg](),
	}
}

func (m *RWMotorTorque) Name() string { return m.ModelTag }

func (m *RWMotorTorque) Reset(now uint64) error {
	if !m.VehControlInMsg.IsLinked() {
		return ErrNotLinked
	}
	nc := len(m.ControlAxesB)
	if nc == 0 || nc > 3 {
		return fmt.Errorf("%w: %d control axes", ErrInvalidControlAxes, nc)
	}

	// CGs is nc x nw; mapping holds (CGs CGsᵀ)⁻¹ padded to 3x3.
	m.cgs = make([][]float64, nc)
	for i, c := range m.ControlAxesB {
		m.cgs[i] = make([]float64, len(m.SpinAxes))
		for j, g := range m.SpinAxes {
			m.cgs[i][j] = c.Dot(g.Unit())
		}
	}
	gram := dynamo.Identity3()
	for i := 0; i < nc; i++ {
		for j := 0; j < nc; j++ {
			var sum float64
			for k := range m.SpinAxes {
				sum += m.cgs[i][k] * m.cgs[j][k]
			}
			gram[i][j] = sum
		}
	}
	inv, err := gram.Inverse()
	if err != nil {
		return fmt.Errorf("%w: wheels cannot span the control axes", ErrInvalidControlAxes)
	}
	m.mapping = inv
	return nil
}

func (m *RWMotorTorque) Update(now uint64) error {
	req, ok := m.VehControlInMsg.Read()
	if !ok {
		return nil
	}
	m.RWMotorTorqueOutMsg.Write(spacecraft.RWCmdMsg{MotorTorque: m.Map(req.TorqueRequestBody)}, now)
	return nil
}

// Map returns wheel motor torques whose reaction on the hub produces the
// requested body torque along the control axes.
func (m *RWMotorTorque) Map(torque dynamo.Vec3) []float64 {
	nc := len(m.cgs)
	var lc dynamo.Vec3
	for i := 0; i < nc; i++ {
		lc[i] = -m.ControlAxesB[i].Dot(torque)
	}
	y := m.mapping.MulVec(lc)

	u := make([]float64, len(m.SpinAxes))
	for j := range u {
		for i := 0; i < nc; i++ {
			u[j] += m.cgs[i][j] * y[i]
		}
	}
	return u
}

// Zero publishes an all-zero wheel command.
func (m *RWMotorTorque) Zero(now uint64) {
	m.RWMotorTorqueOutMsg.Write(spacecraft.RWCmdMsg{MotorTorque: make([]float64, len(m.SpinAxes))}, now)
}
