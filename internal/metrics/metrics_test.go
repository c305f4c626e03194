package metrics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

func circularSamples(n int) ([]float64, []dynamo.State) {
	r0 := 7000e3
	vc := math.Sqrt(orbit.MuEarth / r0)
	w := vc / r0
	times := make([]float64, n)
	xs := make([]dynamo.State, n)
	for i := range xs {
		t := float64(i) * 10
		s, c := math.Sincos(w * t)
		times[i] = t
		xs[i] = dynamo.State{r0 * c, r0 * s, 0, -vc * s, vc * c, 0, 0, 0, 0.1, 0, 0, 0}
	}
	return times, xs
}

func TestDriftOnCircularOrbit(t *testing.T) {
	times, xs := circularSamples(100)
	got := Evaluate(Standard(orbit.MuEarth), times, xs)

	if got["orbital_energy_drift"] > 1e-12 {
		t.Errorf("energy drift = %g, want ~0", got["orbital_energy_drift"])
	}
	if got["angular_momentum_drift"] > 1e-12 {
		t.Errorf("momentum drift = %g, want ~0", got["angular_momentum_drift"])
	}
	wantAngle := 4 * math.Atan(0.1) * orbit.R2D
	if math.Abs(got["final_pointing_angle_deg"]-wantAngle) > 1e-9 {
		t.Errorf("pointing = %g, want %g", got["final_pointing_angle_deg"], wantAngle)
	}
}

func TestEnergyDriftDetectsChange(t *testing.T) {
	m := NewEnergyDrift(orbit.MuEarth)
	_, xs := circularSamples(2)
	m.Observe(xs[0], nil, 0)
	bumped := xs[1].Clone()
	bumped[4] *= 1.01
	m.Observe(bumped, nil, 10)
	if m.Value() <= 0.01 {
		t.Errorf("drift = %g, want > 1%%", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestShortStatesIgnored(t *testing.T) {
	for _, m := range Standard(orbit.MuEarth) {
		m.Observe(dynamo.State{1, 2}, nil, 0)
		if m.Value() != 0 {
			t.Errorf("%s = %g after short state", m.Name(), m.Value())
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveStage("rs1", "execute", 250*time.Millisecond)
	r.RunFinished("rs1", nil)
	r.RunFinished("rs1", errors.New("boom"))
	r.SetSamples("rs1", "sNavAttRec", 6001)
	r.SetValues("rs1", map[string]float64{"orbital_energy_drift": 1e-12})

	path := filepath.Join(t.TempDir(), "rs1sim.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		`rs1sim_runs_total{result="ok",scenario="rs1"} 1`,
		`rs1sim_runs_total{result="error",scenario="rs1"} 1`,
		`rs1sim_recorder_samples{recorder="sNavAttRec",scenario="rs1"} 6001`,
		`rs1sim_stage_duration_seconds_count{scenario="rs1",stage="execute"} 1`,
		`rs1sim_telemetry_metric{metric="orbital_energy_drift",scenario="rs1"}`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
