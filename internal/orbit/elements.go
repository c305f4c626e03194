package orbit

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rs1sim/internal/dynamo"
)

const (
	D2R = math.Pi / 180
	R2D = 180 / math.Pi

	// eps separates circular and equatorial orbits from the general case.
	eps = 1e-11
)

var ErrUnsupportedOrbit = errors.New("orbit: only closed orbits with a > 0 and 0 <= e < 1 are supported")

// ClassicElements are the Keplerian elements of an orbit. Angles in radians,
// A in meters.
type ClassicElements struct {
	A       float64 `json:"a" yaml:"a"`
	E       float64 `json:"e" yaml:"e"`
	I       float64 `json:"i" yaml:"i"`
	Omega   float64 `json:"Omega" yaml:"Omega"`
	ArgPeri float64 `json:"omega" yaml:"omega"`
	F       float64 `json:"f" yaml:"f"`
}

func (oe ClassicElements) String() string {
	return fmt.Sprintf("a=%.3f km e=%.6f i=%.4f° Ω=%.4f° ω=%.4f° f=%.4f°",
		oe.A/1e3, oe.E, oe.I*R2D, oe.Omega*R2D, oe.ArgPeri*R2D, oe.F*R2D)
}

// Period returns the orbital period in seconds.
func (oe ClassicElements) Period(mu float64) float64 {
	return 2 * math.Pi * math.Sqrt(oe.A*oe.A*oe.A/mu)
}

// Radii2ae converts apoapsis and periapsis radii to semi-major axis and
// eccentricity.
func Radii2ae(rA, rP float64) (a, e float64) {
	a = (rA + rP) / 2
	e = (rA - rP) / (rA + rP)
	return a, e
}

// ElemToRV converts elements to inertial position and velocity.
func ElemToRV(mu float64, oe ClassicElements) (r, v dynamo.Vec3, err error) {
	if oe.A <= 0 || oe.E < 0 || oe.E >= 1 {
		return r, v, fmt.Errorf("%w: a=%g e=%g", ErrUnsupportedOrbit, oe.A, oe.E)
	}

	p := oe.A * (1 - oe.E*oe.E)
	rMag := p / (1 + oe.E*math.Cos(oe.F))
	theta := oe.ArgPeri + oe.F

	sO, cO := math.Sincos(oe.Omega)
	si, ci := math.Sincos(oe.I)
	sT, cT := math.Sincos(theta)
	sw, cw := math.Sincos(oe.ArgPeri)

	r = dynamo.Vec3{
		rMag * (cO*cT - sO*sT*ci),
		rMag * (sO*cT + cO*sT*ci),
		rMag * (sT * si),
	}

	k := -math.Sqrt(mu / p)
	v = dynamo.Vec3{
		k * (cO*(sT+oe.E*sw) + sO*(cT+oe.E*cw)*ci),
		k * (sO*(sT+oe.E*sw) - cO*(cT+oe.E*cw)*ci),
		k * (-(cT + oe.E*cw) * si),
	}
	return r, v, nil
}

// RVToElem converts inertial position and velocity to elements. For
// circular orbits ArgPeri is zero and F holds the argument of latitude
// (inclined) or true longitude (equatorial). For equatorial orbits Omega is
// zero.
func RVToElem(mu float64, r, v dynamo.Vec3) (ClassicElements, error) {
	var oe ClassicElements

	rMag := r.Norm()
	if rMag == 0 {
		return oe, fmt.Errorf("%w: zero position", ErrUnsupportedOrbit)
	}
	h := r.Cross(v)
	hMag := h.Norm()
	if hMag == 0 {
		return oe, fmt.Errorf("%w: rectilinear motion", ErrUnsupportedOrbit)
	}
	n := dynamo.Vec3{-h[1], h[0], 0}
	nMag := n.Norm()

	ev := r.Scale(v.Dot(v) - mu/rMag).Sub(v.Scale(r.Dot(v))).Scale(1 / mu)
	oe.E = ev.Norm()

	energy := SpecificEnergy(mu, r, v)
	if energy >= 0 || oe.E >= 1 {
		return oe, fmt.Errorf("%w: e=%g", ErrUnsupportedOrbit, oe.E)
	}
	oe.A = -mu / (2 * energy)
	oe.I = safeAcos(h[2] / hMag)

	equatorial := nMag/hMag < eps
	circular := oe.E < eps

	if !equatorial {
		oe.Omega = safeAcos(n[0] / nMag)
		if n[1] < 0 {
			oe.Omega = 2*math.Pi - oe.Omega
		}
	}

	switch {
	case !circular && !equatorial:
		oe.ArgPeri = safeAcos(n.Dot(ev) / (nMag * oe.E))
		if ev[2] < 0 {
			oe.ArgPeri = 2*math.Pi - oe.ArgPeri
		}
	case !circular && equatorial:
		oe.ArgPeri = wrap(math.Atan2(ev[1], ev[0]))
		if h[2] < 0 {
			oe.ArgPeri = wrap(-oe.ArgPeri)
		}
	}

	switch {
	case !circular:
		oe.F = safeAcos(ev.Dot(r) / (oe.E * rMag))
		if r.Dot(v) < 0 {
			oe.F = 2*math.Pi - oe.F
		}
	case !equatorial:
		oe.F = safeAcos(n.Dot(r) / (nMag * rMag))
		if r[2] < 0 {
			oe.F = 2*math.Pi - oe.F
		}
	default:
		oe.F = wrap(math.Atan2(r[1], r[0]))
		if h[2] < 0 {
			oe.F = wrap(-oe.F)
		}
	}
	return oe, nil
}

func safeAcos(x float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, x)))
}

func wrap(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
