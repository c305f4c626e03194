package dynamics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/orbit"
	"github.com/san-kum/rs1sim/internal/session"
)

func bind(t *testing.T, f Factory) (*session.Session, *Models) {
	t.Helper()
	s, err := session.New(0.1, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetDynModel(f); err != nil {
		t.Fatalf("SetDynModel: %v", err)
	}
	ms, err := s.DynModel()
	if err != nil {
		t.Fatal(err)
	}
	m, err := From(ms)
	if err != nil {
		t.Fatal(err)
	}
	return s, m
}

func TestBuild(t *testing.T) {
	s, m := bind(t, Factory{})

	if m.TaskName() != TaskName || m.ProcessName() != session.DynamicsProcessName {
		t.Errorf("task=%s process=%s", m.TaskName(), m.ProcessName())
	}
	if m.Rate() != 0.1 {
		t.Errorf("rate = %g", m.Rate())
	}
	task, ok := s.Task(TaskName)
	if !ok {
		t.Fatal("dynamics task not registered")
	}
	if task.Period() != engine.SecToNano(0.1) {
		t.Errorf("period = %d", task.Period())
	}
	models := task.Models()
	if len(models) != 2 || models[0] != m.SCObject || models[1] != m.SimpleNavObject {
		t.Errorf("task models = %v", models)
	}
	if m.RWStateEffector.NumWheels() != 3 {
		t.Errorf("wheels = %d, want 3", m.RWStateEffector.NumWheels())
	}
	if m.GravFactory != m.SCObject.Gravity {
		t.Error("gravity factory should be the spacecraft's")
	}
}

func TestBuildUnknownIntegrator(t *testing.T) {
	s, _ := session.New(0.1, 0.1)
	if err := s.SetDynModel(Factory{Integrator: "leapfrog"}); err == nil {
		t.Error("expected unknown integrator error")
	}
}

func TestFromWrongSet(t *testing.T) {
	type other struct{ session.ModelSet }
	if _, err := From(other{}); !errors.Is(err, session.ErrWrongModelSet) {
		t.Errorf("err = %v, want ErrWrongModelSet", err)
	}
}

func TestConversionsNeedCentralBody(t *testing.T) {
	_, m := bind(t, Factory{})
	if _, _, err := m.ElementsToState(orbit.ClassicElements{A: 7000e3}); !errors.Is(err, orbit.ErrNoCentralBody) {
		t.Errorf("err = %v, want ErrNoCentralBody", err)
	}
}

func TestConversionRoundTrip(t *testing.T) {
	_, m := bind(t, Factory{})
	m.GravFactory.CreateEarth().IsCentralBody = true

	oe := orbit.ClassicElements{A: 7000e3, E: 0.1, I: 33.3 * orbit.D2R, Omega: 48.2 * orbit.D2R, ArgPeri: 347.8 * orbit.D2R, F: 85.3 * orbit.D2R}
	r, v, err := m.ElementsToState(oe)
	if err != nil {
		t.Fatal(err)
	}
	back, err := m.StateToElements(r, v)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(back.A-oe.A) > 1e-3 || math.Abs(back.E-oe.E) > 1e-10 || math.Abs(back.F-oe.F) > 1e-9 {
		t.Errorf("round trip = %v, want %v", back, oe)
	}
}

func TestUnboundGravitySurfacesAtInitialize(t *testing.T) {
	s, _ := bind(t, Factory{})
	err := s.InitializeSimulation(context.Background())
	var cfgErr *engine.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *engine.ConfigurationError", err)
	}
	if cfgErr.Model != "spacecraftBody" {
		t.Errorf("model = %s", cfgErr.Model)
	}
}
