package metrics

import (
	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

// Pointing is the final principal rotation angle of σ_BN, in degrees.
type Pointing struct {
	name    string
	last    float64
	samples int
}

func NewPointing() *Pointing {
	return &Pointing{name: "final_pointing_angle_deg"}
}

func (p *Pointing) Name() string { return p.name }

func (p *Pointing) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < 9 {
		return
	}
	p.last = attitude.PrincipalAngle(x.Vec3(6)) * orbit.R2D
	p.samples++
}

func (p *Pointing) Value() float64 {
	return p.last
}

func (p *Pointing) Reset() {
	p.last = 0
	p.samples = 0
}
