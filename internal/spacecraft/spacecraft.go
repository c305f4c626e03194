// Package spacecraft models a rigid hub with an optional reaction-wheel
// effector under point-mass gravity.
package spacecraft

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/orbit"
)

// Hub holds the rigid-body properties and initial conditions.
type Hub struct {
	Mass         float64
	Inertia      dynamo.Mat3
	RCNNInit     dynamo.Vec3
	VCNNInit     dynamo.Vec3
	SigmaBNInit  dynamo.Vec3
	OmegaBNBInit dynamo.Vec3
}

// DefaultHub is a 750 kg bus with a diagonal inertia.
func DefaultHub() Hub {
	return Hub{
		Mass:    750,
		Inertia: dynamo.Diag3(900, 800, 600),
	}
}

const (
	idxR     = 0
	idxV     = 3
	idxSigma = 6
	idxOmega = 9
	idxWheel = 12
)

// Spacecraft is an engine model that integrates the hub state every time its
// task runs. The state vector is [r v σ ω Ω₁..Ωₙ].
type Spacecraft struct {
	ModelTag      string
	Hub           Hub
	Gravity       *orbit.GravFactory
	ScStateOutMsg *engine.Message[StateMsg]

	integrator dynamo.Integrator
	rw         *RWEffector
	central    *orbit.GravBody
	axes       []dynamo.Vec3
	jsInv      dynamo.Mat3
	x          dynamo.State
	lastTime   uint64
	started    bool
	logger     *slog.Logger
}

// New returns a spacecraft with the default hub and an empty gravity factory.
func New(integrator dynamo.Integrator, logger *slog.Logger) *Spacecraft {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Spacecraft{
		ModelTag:      "spacecraftBody",
		Hub:           DefaultHub(),
		Gravity:       orbit.NewGravFactory(),
		ScStateOutMsg: engine.NewMessage[StateMsg](),
		integrator:    integrator,
		logger:        logger,
	}
}

// AddStateEffector attaches the reaction-wheel effector.
func (sc *Spacecraft) AddStateEffector(rw *RWEffector) {
	sc.rw = rw
}

func (sc *Spacecraft) Name() string { return sc.ModelTag }

func (sc *Spacecraft) Reset(now uint64) error {
	if len(sc.Gravity.Bodies()) == 0 {
		return ErrNoGravity
	}
	central, err := sc.Gravity.CentralBody()
	if err != nil {
		return err
	}
	sc.central = central

	if sc.Hub.Mass <= 0 || sc.Hub.Inertia.Det() <= 0 {
		return ErrInvalidHub
	}

	js := sc.Hub.Inertia
	sc.axes = nil
	n := 0
	if sc.rw != nil {
		if err := sc.rw.validate(); err != nil {
			return err
		}
		sc.rw.clearFaults()
		sc.axes = sc.rw.SpinAxes()
		n = len(sc.axes)
		for i, g := range sc.axes {
			js = js.Add(outer(g, g).Scale(-sc.rw.Wheels[i].Js))
		}
	}
	inv, err := js.Inverse()
	if err != nil {
		return fmt.Errorf("spacecraft: hub inertia minus wheel spin inertia: %w", err)
	}
	sc.jsInv = inv

	sc.x = make(dynamo.State, idxWheel+n)
	sc.x.SetVec3(idxR, sc.Hub.RCNNInit)
	sc.x.SetVec3(idxV, sc.Hub.VCNNInit)
	sc.x.SetVec3(idxSigma, attitude.Shadow(sc.Hub.SigmaBNInit))
	sc.x.SetVec3(idxOmega, sc.Hub.OmegaBNBInit)
	for i := 0; i < n; i++ {
		sc.x[idxWheel+i] = sc.rw.Wheels[i].OmegaInit
	}
	sc.started = false
	sc.lastTime = now

	sc.logger.Debug("spacecraft reset",
		"model", sc.ModelTag,
		"central_body", central.Name,
		"wheels", n,
		"r0_km", sc.Hub.RCNNInit.Norm()/1e3)
	return nil
}

// Update integrates from the previous call to now and publishes the state.
// The first call after Reset only publishes.
func (sc *Spacecraft) Update(now uint64) error {
	if sc.started && now > sc.lastTime {
		t := engine.NanoToSec(sc.lastTime)
		dt := engine.NanoToSec(now - sc.lastTime)
		var u dynamo.Control
		if sc.rw != nil {
			u = sc.rw.torques()
		}
		next := sc.integrator.Step(sc, sc.x, u, t, dt)
		if len(next) != len(sc.x) {
			return &dynamo.StepError{Time: t, State: sc.x.Clone(), Wrapped: dynamo.ErrDimensionMismatch}
		}
		if !next.IsValid() {
			return &dynamo.StepError{Time: t, State: sc.x.Clone(), Wrapped: dynamo.ErrInvalidState}
		}
		next.SetVec3(idxSigma, attitude.Shadow(next.Vec3(idxSigma)))
		sc.x = next
	}
	sc.started = true
	sc.lastTime = now
	sc.publish(now)
	return nil
}

func (sc *Spacecraft) publish(now uint64) {
	sc.ScStateOutMsg.Write(sc.State(), now)
	if sc.rw != nil {
		sc.rw.SpeedOutMsg.Write(RWSpeedMsg{WheelSpeeds: sc.WheelSpeeds()}, now)
	}
}

// State returns the current hub state.
func (sc *Spacecraft) State() StateMsg {
	return StateMsg{
		RBNN:     sc.x.Vec3(idxR),
		VBNN:     sc.x.Vec3(idxV),
		SigmaBN:  sc.x.Vec3(idxSigma),
		OmegaBNB: sc.x.Vec3(idxOmega),
	}
}

func (sc *Spacecraft) WheelSpeeds() []float64 {
	out := make([]float64, len(sc.x)-idxWheel)
	copy(out, sc.x[idxWheel:])
	return out
}

// AngularMomentumB returns the total rotational angular momentum about the
// hub center of mass, in body components.
func (sc *Spacecraft) AngularMomentumB() dynamo.Vec3 {
	h := sc.Hub.Inertia.MulVec(sc.x.Vec3(idxOmega))
	for i, g := range sc.axes {
		h = h.Add(g.Scale(sc.rw.Wheels[i].Js * sc.x[idxWheel+i]))
	}
	return h
}

// AngularMomentumN returns AngularMomentumB in inertial components.
func (sc *Spacecraft) AngularMomentumN() dynamo.Vec3 {
	bn := attitude.ToDCM(sc.x.Vec3(idxSigma))
	return bn.Transpose().MulVec(sc.AngularMomentumB())
}

func (sc *Spacecraft) StateDim() int   { return idxWheel + len(sc.axes) }
func (sc *Spacecraft) ControlDim() int { return len(sc.axes) }

func (sc *Spacecraft) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))

	r := x.Vec3(idxR)
	sigma := x.Vec3(idxSigma)
	omega := x.Vec3(idxOmega)

	dx.SetVec3(idxR, x.Vec3(idxV))
	dx.SetVec3(idxV, sc.central.Accel(r))
	dx.SetVec3(idxSigma, attitude.Rate(sigma, omega))

	h := sc.Hub.Inertia.MulVec(omega)
	var gu dynamo.Vec3
	for i, g := range sc.axes {
		h = h.Add(g.Scale(sc.rw.Wheels[i].Js * x[idxWheel+i]))
		if i < len(u) {
			gu = gu.Add(g.Scale(u[i]))
		}
	}
	omegaDot := sc.jsInv.MulVec(omega.Cross(h).Scale(-1).Sub(gu))
	dx.SetVec3(idxOmega, omegaDot)

	for i, g := range sc.axes {
		var ui float64
		if i < len(u) {
			ui = u[i]
		}
		dx[idxWheel+i] = ui/sc.rw.Wheels[i].Js - g.Dot(omegaDot)
	}
	return dx
}

func outer(a, b dynamo.Vec3) dynamo.Mat3 {
	var m dynamo.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = a[i] * b[j]
		}
	}
	return m
}
