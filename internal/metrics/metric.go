// Package metrics evaluates recorded navigation telemetry and exports run
// statistics in the Prometheus text format.
//
// Telemetry metrics observe a 12-element state [r v σ ω] per sample.
package metrics

import "github.com/san-kum/rs1sim/internal/dynamo"

// Metric accumulates one scalar over a run.
type Metric interface {
	Name() string
	Observe(x dynamo.State, u dynamo.Control, t float64)
	Value() float64
	Reset()
}

// Standard returns the metrics evaluated for every scenario run.
func Standard(mu float64) []Metric {
	return []Metric{
		NewEnergyDrift(mu),
		NewMomentumDrift(),
		NewPointing(),
	}
}

// Evaluate resets each metric, feeds it every sample and returns the values
// by name.
func Evaluate(ms []Metric, times []float64, xs []dynamo.State) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, x := range xs {
			m.Observe(x, nil, times[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}
