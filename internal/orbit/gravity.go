package orbit

import (
	"errors"
	"fmt"

	"github.com/san-kum/rs1sim/internal/dynamo"
)

var (
	ErrNoCentralBody       = errors.New("orbit: no gravity body flagged as central")
	ErrMultipleCentralBody = errors.New("orbit: more than one central gravity body")
)

// Planetary constants in SI units.
const (
	MuEarth = 3.986004415e14
	REarth  = 6378136.6
	J2Earth = 1.0826267e-3

	MuSun = 1.32712440018e20
	RSun  = 695000e3

	MuMoon = 4.902799e12
	RMoon  = 1738.1e3
)

// GravBody is a point-mass gravity source. J2 is applied only when UseJ2 is
// set and the body is central.
type GravBody struct {
	Name          string
	Mu            float64
	RadEquator    float64
	J2            float64
	UseJ2         bool
	IsCentralBody bool
}

// GravFactory owns the gravity bodies of one spacecraft. Create* is
// idempotent per body name.
type GravFactory struct {
	bodies []*GravBody
}

func NewGravFactory() *GravFactory {
	return &GravFactory{}
}

func (g *GravFactory) create(b GravBody) *GravBody {
	for _, existing := range g.bodies {
		if existing.Name == b.Name {
			return existing
		}
	}
	body := &b
	g.bodies = append(g.bodies, body)
	return body
}

func (g *GravFactory) CreateEarth() *GravBody {
	return g.create(GravBody{Name: "earth", Mu: MuEarth, RadEquator: REarth, J2: J2Earth})
}

func (g *GravFactory) CreateSun() *GravBody {
	return g.create(GravBody{Name: "sun", Mu: MuSun, RadEquator: RSun})
}

func (g *GravFactory) CreateMoon() *GravBody {
	return g.create(GravBody{Name: "moon", Mu: MuMoon, RadEquator: RMoon})
}

// Bodies returns the created bodies in creation order.
func (g *GravFactory) Bodies() []*GravBody {
	out := make([]*GravBody, len(g.bodies))
	copy(out, g.bodies)
	return out
}

// CentralBody returns the single body flagged central.
func (g *GravFactory) CentralBody() (*GravBody, error) {
	var central *GravBody
	for _, b := range g.bodies {
		if !b.IsCentralBody {
			continue
		}
		if central != nil {
			return nil, fmt.Errorf("%w: %s and %s", ErrMultipleCentralBody, central.Name, b.Name)
		}
		central = b
	}
	if central == nil {
		return nil, ErrNoCentralBody
	}
	return central, nil
}

// Accel returns the gravitational acceleration at r, expressed relative to
// the central body. Non-central bodies carry no ephemeris and do not
// contribute.
func (b *GravBody) Accel(r dynamo.Vec3) dynamo.Vec3 {
	rn := r.Norm()
	if rn == 0 {
		return dynamo.Vec3{}
	}
	a := r.Scale(-b.Mu / (rn * rn * rn))
	if !b.UseJ2 || b.J2 == 0 {
		return a
	}
	// Zonal J2 term in the body-fixed frame, aligned with N for this model.
	k := 1.5 * b.J2 * b.Mu * b.RadEquator * b.RadEquator / (rn * rn * rn * rn * rn)
	z2 := r[2] * r[2] / (rn * rn)
	return a.Add(dynamo.Vec3{
		k * r[0] * (5*z2 - 1),
		k * r[1] * (5*z2 - 1),
		k * r[2] * (5*z2 - 3),
	})
}

// SpecificEnergy returns v²/2 - μ/r.
func SpecificEnergy(mu float64, r, v dynamo.Vec3) float64 {
	return 0.5*v.Dot(v) - mu/r.Norm()
}
