package metrics

import (
	"math"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

// EnergyDrift is the maximum relative drift of the specific orbital energy
// from its first sample.
type EnergyDrift struct {
	name          string
	mu            float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(mu float64) *EnergyDrift {
	return &EnergyDrift{
		name: "orbital_energy_drift",
		mu:   mu,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 6 {
		return
	}
	energy := orbit.SpecificEnergy(e.mu, x.Vec3(0), x.Vec3(3))

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift is the maximum relative drift of |r × v|.
type MomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "angular_momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 6 {
		return
	}
	h := x.Vec3(0).Cross(x.Vec3(3)).Norm()
	if m.samples == 0 {
		m.initial = h
	}
	m.samples++
	if m.initial != 0 {
		m.maxDrift = math.Max(m.maxDrift, math.Abs(h-m.initial)/m.initial)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}
