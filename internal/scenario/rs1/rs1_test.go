package rs1

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/metrics"
	"github.com/san-kum/rs1sim/internal/scenario"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func runScenario(t *testing.T, cfg *config.Config, opts ...Option) *Scenario {
	t.Helper()
	sc, err := New(*cfg, opts...)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}
	if err := scenario.RunScenario(context.Background(), sc, RunOptionsFor(cfg, nil, nil)); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return sc
}

func TestReferenceRunRecordsEverySample(t *testing.T) {
	sc := runScenario(t, testConfig(t))

	att, trans := sc.Recorders()
	if att.Len() != 6001 || trans.Len() != 6001 {
		t.Fatalf("expected 6001 samples, got att=%d trans=%d", att.Len(), trans.Len())
	}
	tel := sc.Telemetry()
	if tel.Times[0] != 0 || tel.Times[tel.Len()-1] != uint64(10*time.Minute) {
		t.Errorf("unexpected time span %d..%d", tel.Times[0], tel.Times[tel.Len()-1])
	}
	if math.Abs(tel.TimeMin[tel.Len()-1]-10) > 1e-12 {
		t.Errorf("expected last sample at 10 min, got %f", tel.TimeMin[tel.Len()-1])
	}
	if sc.State() != scenario.Completed {
		t.Errorf("expected Completed, got %s", sc.State())
	}

	values := sc.Evaluate()
	if drift := values["orbital_energy_drift"]; drift > 1e-6 {
		t.Errorf("orbital energy drift too large: %g", drift)
	}
}

func TestRunSavesFigures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = time.Minute

	paths, err := Run(context.Background(), false, WithConfig(cfg))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, key := range []string{"orbit", "orientation"} {
		p, ok := paths[key]
		if !ok || p == "" {
			t.Fatalf("missing figure %q in %v", key, paths)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("figure %s not written: %v", key, err)
		}
	}
}

func TestRunShowReturnsEmptyMap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = time.Minute
	var out bytes.Buffer

	paths, err := Run(context.Background(), true, WithConfig(cfg), WithOutput(&out))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if paths == nil || len(paths) != 0 {
		t.Errorf("expected empty non-nil map, got %v", paths)
	}
	if !strings.Contains(out.String(), "Spacecraft orbit") {
		t.Error("expected rendered orbit figure")
	}
	entries, _ := os.ReadDir(cfg.Output.Dir)
	if len(entries) != 0 {
		t.Errorf("show mode wrote %d files", len(entries))
	}
}

func TestInitialElementsMatchConfig(t *testing.T) {
	cfg := testConfig(t)
	sc, err := New(*cfg)
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}
	want := cfg.Orbit.Elements()
	got := sc.InitialElements()
	if math.Abs(got.A-want.A)/want.A > 1e-9 || math.Abs(got.E-want.E) > 1e-9 {
		t.Errorf("a/e mismatch: got %+v want %+v", got, want)
	}
	for _, pair := range [][2]float64{{got.I, want.I}, {got.Omega, want.Omega}, {got.ArgPeri, want.ArgPeri}, {got.F, want.F}} {
		if math.Abs(pair[0]-pair[1]) > 1e-8 {
			t.Errorf("angle mismatch: got %f want %f", pair[0], pair[1])
		}
	}
	hub := sc.Dynamics().SCObject.Hub
	if hub.Mass != 750 || hub.Inertia[0][0] != 900 || hub.SigmaBNInit != cfg.Attitude.SigmaBN {
		t.Errorf("hub not configured: %+v", hub)
	}
	if sc.State() != scenario.LoggingWired {
		t.Errorf("expected LoggingWired, got %s", sc.State())
	}
}

func TestInertialPointingReducesAttitudeError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "inertial3D"
	sc := runScenario(t, cfg)

	tel := sc.Telemetry()
	initial := attitude.PrincipalAngle(tel.SigmaBN[0])
	final := attitude.PrincipalAngle(tel.SigmaBN[tel.Len()-1])
	if final >= initial/2 {
		t.Errorf("attitude error not reduced: initial %.3f rad, final %.3f rad", initial, final)
	}
}

func TestRerunCompletedScenario(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 10 * time.Second
	sc := runScenario(t, cfg)

	err := scenario.RunScenario(context.Background(), sc, RunOptionsFor(cfg, nil, nil))
	if !errors.Is(err, scenario.ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestWheelFault(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 10 * time.Second
	cfg.Faults = []config.FaultConfig{{Wheel: 2, At: 5 * time.Second}}
	sc := runScenario(t, cfg, WithWheelRecorder())

	rw := sc.Dynamics().RWStateEffector
	if rw.Failed(0) || !rw.Failed(1) {
		t.Errorf("expected only RW2 failed")
	}
	if tel := sc.Telemetry(); len(tel.Wheels) != 101 {
		t.Errorf("expected 101 wheel samples, got %d", len(tel.Wheels))
	}

	cfg.Faults = []config.FaultConfig{{Wheel: 4}}
	if _, err := New(*cfg); !errors.Is(err, spacecraft.ErrUnknownWheel) {
		t.Errorf("expected ErrUnknownWheel, got %v", err)
	}
}

func TestVizFeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 10 * time.Second
	path := filepath.Join(t.TempDir(), "viz.jsonl")

	sc := runScenario(t, cfg, WithVizFile(path))
	if _, err := sc.PullOutputs(false); err != nil {
		t.Fatalf("pull outputs: %v", err)
	}
	if got := sc.VizFrames(); got != 101 {
		t.Errorf("expected 101 frames, got %d", got)
	}

	bad := filepath.Join(t.TempDir(), "missing", "viz.jsonl")
	sc2, err := New(*cfg, WithVizFile(bad))
	if err != nil {
		t.Fatalf("viz failure must not fail construction: %v", err)
	}
	if sc2.VizFrames() != -1 {
		t.Error("expected feed disabled")
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Duration = 5 * time.Second
	reg := metrics.NewRegistry()

	if _, err := Run(context.Background(), false, WithConfig(cfg), WithMetrics(reg)); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rs1.prom")
	if err := reg.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `rs1sim_runs_total{result="ok",scenario="rs1"} 1`) {
		t.Errorf("missing run counter:\n%s", data)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DynRate = 0
	if _, err := New(*cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
