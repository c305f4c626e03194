// Package dynamics builds the dynamics model set: the spacecraft hub with
// gravity and reaction wheels, plus the simple navigation sensor, all on one
// task of the dynamics process.
package dynamics

import (
	"fmt"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/integrators"
	"github.com/san-kum/rs1sim/internal/nav"
	"github.com/san-kum/rs1sim/internal/orbit"
	"github.com/san-kum/rs1sim/internal/session"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

const TaskName = "DynamicsTask"

// Models is the dynamics model set.
type Models struct {
	SCObject        *spacecraft.Spacecraft
	GravFactory     *orbit.GravFactory
	SimpleNavObject *nav.SimpleNav
	RWStateEffector *spacecraft.RWEffector

	processName string
	rate        float64
}

func (m *Models) ProcessName() string { return m.processName }
func (m *Models) TaskName() string    { return TaskName }
func (m *Models) Rate() float64       { return m.rate }

// Factory builds Models. A nil Wheels slice selects the default three-wheel
// cluster; an empty non-nil slice builds a wheel-less spacecraft.
type Factory struct {
	Integrator string
	Wheels     []spacecraft.WheelConfig
	NavNoise   nav.Noise
}

func (f Factory) Build(s *session.Session, rate float64) (session.ModelSet, error) {
	integ, err := integrators.ByName(f.Integrator)
	if err != nil {
		return nil, fmt.Errorf("dynamics: %w", err)
	}
	proc := s.DynProcess()
	if proc == nil {
		return nil, fmt.Errorf("%w: dynamics process not created", session.ErrPrecondition)
	}

	task, err := s.CreateNewTask(TaskName, engine.SecToNano(rate))
	if err != nil {
		return nil, err
	}
	if err := proc.AddTask(task, engine.DefaultPriority); err != nil {
		return nil, err
	}

	wheels := f.Wheels
	if wheels == nil {
		wheels = spacecraft.DefaultWheels()
	}

	sc := spacecraft.New(integ, s.Logger())
	rw := spacecraft.NewRWEffector(wheels...)
	sc.AddStateEffector(rw)

	sn := nav.New()
	sn.Noise = f.NavNoise
	sn.ScStateInMsg.Subscribe(sc.ScStateOutMsg)

	m := &Models{
		SCObject:        sc,
		GravFactory:     sc.Gravity,
		SimpleNavObject: sn,
		RWStateEffector: rw,
		processName:     proc.Name(),
		rate:            rate,
	}

	if err := s.AddModelToTaskWithPriority(TaskName, sc, 100); err != nil {
		return nil, err
	}
	if err := s.AddModelToTaskWithPriority(TaskName, sn, 99); err != nil {
		return nil, err
	}
	return m, nil
}

// From converts a bound model set back to *Models.
func From(ms session.ModelSet) (*Models, error) {
	m, ok := ms.(*Models)
	if !ok {
		return nil, fmt.Errorf("%w: want *dynamics.Models, got %T", session.ErrWrongModelSet, ms)
	}
	return m, nil
}

// ElementsToState converts classical elements to inertial position and
// velocity about the central body.
func (m *Models) ElementsToState(oe orbit.ClassicElements) (r, v dynamo.Vec3, err error) {
	mu, err := m.centralMu()
	if err != nil {
		return r, v, err
	}
	return orbit.ElemToRV(mu, oe)
}

// StateToElements is the inverse of ElementsToState.
func (m *Models) StateToElements(r, v dynamo.Vec3) (orbit.ClassicElements, error) {
	mu, err := m.centralMu()
	if err != nil {
		return orbit.ClassicElements{}, err
	}
	return orbit.RVToElem(mu, r, v)
}

func (m *Models) centralMu() (float64, error) {
	body, err := m.GravFactory.CentralBody()
	if err != nil {
		return 0, err
	}
	return body.Mu, nil
}
