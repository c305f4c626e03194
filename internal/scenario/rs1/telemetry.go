package rs1

import (
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/metrics"
	"github.com/san-kum/rs1sim/internal/nav"
	"github.com/san-kum/rs1sim/internal/orbit"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

// Telemetry is the recorded navigation history of a run.
type Telemetry struct {
	Times    []uint64
	TimeMin  []float64
	SigmaBN  []dynamo.Vec3
	OmegaBNB []dynamo.Vec3
	RBNN     []dynamo.Vec3
	VBNN     []dynamo.Vec3
	// Wheels is empty unless the wheel recorder was enabled.
	Wheels [][]float64
}

// Len is the number of samples.
func (t Telemetry) Len() int { return len(t.Times) }

// States packs each sample as [r v σ ω].
func (t Telemetry) States() []dynamo.State {
	out := make([]dynamo.State, t.Len())
	for i := range out {
		x := make(dynamo.State, 12)
		x.SetVec3(0, t.RBNN[i])
		x.SetVec3(3, t.VBNN[i])
		x.SetVec3(6, t.SigmaBN[i])
		x.SetVec3(9, t.OmegaBNB[i])
		out[i] = x
	}
	return out
}

// Seconds returns the sample times in seconds.
func (t Telemetry) Seconds() []float64 {
	out := make([]float64, len(t.Times))
	for i, ns := range t.Times {
		out[i] = engine.NanoToSec(ns)
	}
	return out
}

// Telemetry extracts the recorded series. Before the run it is empty.
func (s *Scenario) Telemetry() Telemetry {
	if s.attRec == nil || s.transRec == nil {
		return Telemetry{}
	}
	n := min(s.attRec.Len(), s.transRec.Len())
	tel := Telemetry{
		Times:    s.attRec.Times()[:n],
		TimeMin:  engine.NanosToMinutes(s.attRec.Times()[:n]),
		SigmaBN:  engine.Map(s.attRec, func(m nav.AttMsg) dynamo.Vec3 { return m.SigmaBN })[:n],
		OmegaBNB: engine.Map(s.attRec, func(m nav.AttMsg) dynamo.Vec3 { return m.OmegaBNB })[:n],
		RBNN:     engine.Map(s.transRec, func(m nav.TransMsg) dynamo.Vec3 { return m.RBNN })[:n],
		VBNN:     engine.Map(s.transRec, func(m nav.TransMsg) dynamo.Vec3 { return m.VBNN })[:n],
	}
	if s.wheelRec != nil {
		tel.Wheels = engine.Map(s.wheelRec, func(m spacecraft.RWSpeedMsg) []float64 { return m.WheelSpeeds })
	}
	return tel
}

// Evaluate computes the standard telemetry metrics over the recorded run.
func (s *Scenario) Evaluate() map[string]float64 {
	tel := s.Telemetry()
	if tel.Len() == 0 {
		return map[string]float64{}
	}
	mu := orbit.MuEarth
	if body, err := s.dyn.GravFactory.CentralBody(); err == nil {
		mu = body.Mu
	}
	return metrics.Evaluate(metrics.Standard(mu), tel.Seconds(), tel.States())
}
