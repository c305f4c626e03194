package fsw

import (
	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/nav"
)

// Inertial3D publishes a fixed inertial reference attitude.
type Inertial3D struct {
	ModelTag     string
	SigmaR2N     dynamo.Vec3
	AttRefOutMsg *engine.Message[AttRefMsg]
}

func NewInertial3D() *Inertial3D {
	return &Inertial3D{
		ModelTag:     "inertial3D",
		AttRefOutMsg: engine.NewMessage[AttRefMsg](),
	}
}

func (g *Inertial3D) Name() string           { return g.ModelTag }
func (g *Inertial3D) Reset(now uint64) error { return nil }

func (g *Inertial3D) Update(now uint64) error {
	g.AttRefOutMsg.Write(AttRefMsg{SigmaRN: attitude.Shadow(g.SigmaR2N)}, now)
	return nil
}

// AttTrackingError combines the navigation attitude with a reference into
// the tracking error used by the controller.
type AttTrackingError struct {
	ModelTag      string
	AttNavInMsg   engine.InMsg[nav.AttMsg]
	AttRefInMsg   engine.InMsg[AttRefMsg]
	AttGuidOutMsg *engine.Message[AttGuidMsg]
}

func NewAttTrackingError() *AttTrackingError {
	return &AttTrackingError{
		ModelTag:      "attTrackingError",
		AttGuidOutMsg: engine.NewMessage[AttGuidMsg](),
	}
}

func (g *AttTrackingError) Name() string { return g.ModelTag }

func (g *AttTrackingError) Reset(now uint64) error {
	if !g.AttNavInMsg.IsLinked() || !g.AttRefInMsg.IsLinked() {
		return ErrNotLinked
	}
	return nil
}

func (g *AttTrackingError) Update(now uint64) error {
	navAtt, ok := g.AttNavInMsg.Read()
	if !ok {
		return nil
	}
	ref, ok := g.AttRefInMsg.Read()
	if !ok {
		return nil
	}

	bn := attitude.ToDCM(navAtt.SigmaBN)
	omegaRNB := bn.MulVec(ref.OmegaRNN)
	g.AttGuidOutMsg.Write(AttGuidMsg{
		SigmaBR:   attitude.Sub(navAtt.SigmaBN, ref.SigmaRN),
		OmegaBRB:  navAtt.OmegaBNB.Sub(omegaRNB),
		OmegaRNB:  omegaRNB,
		DomegaRNB: bn.MulVec(ref.DomegaRNN),
	}, now)
	return nil
}
