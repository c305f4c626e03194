package plotting

import (
	"math"

	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
)

// Figure names produced by the RS1 scenario.
const (
	OrbitFigure       = "orbit"
	OrientationFigure = "orientation"
)

// PlotOrbit adds the in-plane orbit track (km) with the planet outline.
// planetRadius is in metres; zero omits the outline.
func PlotOrbit(s *ResultsSink, rN []dynamo.Vec3, planetRadius float64) *Figure {
	f := s.Figure(OrbitFigure)
	f.Title = "Spacecraft orbit"
	f.XLabel = "x [km]"
	f.YLabel = "y [km]"
	f.XY = true
	f.EqualAxes = true

	if planetRadius > 0 {
		const n = 181
		xs, ys := make([]float64, n), make([]float64, n)
		for i := range n {
			th := 2 * math.Pi * float64(i) / float64(n-1)
			xs[i] = planetRadius / 1000 * math.Cos(th)
			ys[i] = planetRadius / 1000 * math.Sin(th)
		}
		f.Add("planet", "#7f7f7f", xs, ys)
	}

	xs, ys := make([]float64, len(rN)), make([]float64, len(rN))
	for i, r := range rN {
		xs[i], ys[i] = r[0]/1000, r[1]/1000
	}
	f.Add("r_BN_N", "", xs, ys)
	return f
}

// PlotOrientation adds the alignment of the body axes with the local
// orbit frame: r̂·b1, θ̂·b2 and ĥ·b3 against time in minutes.
func PlotOrientation(s *ResultsSink, timeMin []float64, rN, vN, sigmaBN []dynamo.Vec3) *Figure {
	f := s.Figure(OrientationFigure)
	f.Title = "Body axes vs orbit frame"
	f.XLabel = "time [min]"
	f.YLabel = "orientation error"

	n := min(len(timeMin), len(rN), len(vN), len(sigmaBN))
	rb1, tb2, hb3 := make([]float64, n), make([]float64, n), make([]float64, n)
	for i := range n {
		rHat := rN[i].Unit()
		hHat := rN[i].Cross(vN[i]).Unit()
		thHat := hHat.Cross(rHat)
		dcmBN := attitude.ToDCM(sigmaBN[i])
		rb1[i] = rHat.Dot(dynamo.Vec3(dcmBN[0]))
		tb2[i] = thHat.Dot(dynamo.Vec3(dcmBN[1]))
		hb3[i] = hHat.Dot(dynamo.Vec3(dcmBN[2]))
	}
	tm := timeMin[:n]
	f.Add("r̂·b1", "", tm, rb1)
	f.Add("θ̂·b2", "", tm, tb2)
	f.Add("ĥ·b3", "", tm, hb3)
	return f
}
