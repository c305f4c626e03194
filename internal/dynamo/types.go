package dynamo

import (
	"math"
)

// State is a flat state vector. Models lay out 3-vectors in consecutive
// slots and address them with Vec3/SetVec3.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Vec3 reads three consecutive entries starting at offset.
func (s State) Vec3(offset int) Vec3 {
	return Vec3{s[offset], s[offset+1], s[offset+2]}
}

// SetVec3 writes v into three consecutive entries starting at offset.
func (s State) SetVec3(offset int, v Vec3) {
	s[offset], s[offset+1], s[offset+2] = v[0], v[1], v[2]
}

// Control is the actuator input held constant over one step.
type Control []float64

// System is an ODE right-hand side.
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Integrator advances x by dt. It must not modify x.
type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}
