package orbit

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rs1sim/internal/dynamo"
)

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	return math.Min(d, 2*math.Pi-d)
}

func TestElementsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		oe   ClassicElements
	}{
		{"reference", ClassicElements{A: 7000e3, E: 0.1, I: 33.3 * D2R, Omega: 48.2 * D2R, ArgPeri: 347.8 * D2R, F: 85.3 * D2R}},
		{"iss-like", ClassicElements{A: REarth + 417.5e3, E: 0.0003492, I: 51.6439 * D2R, Omega: 346.7648 * D2R, ArgPeri: 165.4333 * D2R, F: 298.6058 * D2R}},
		{"descending", ClassicElements{A: 8000e3, E: 0.3, I: 98 * D2R, Omega: 200 * D2R, ArgPeri: 10 * D2R, F: 250 * D2R}},
		{"circular inclined", ClassicElements{A: 7000e3, E: 0, I: 45 * D2R, Omega: 30 * D2R, F: 60 * D2R}},
		{"equatorial elliptic", ClassicElements{A: 9000e3, E: 0.2, ArgPeri: 40 * D2R, F: 100 * D2R}},
		{"circular equatorial", ClassicElements{A: 42164e3, F: 123 * D2R}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, v, err := ElemToRV(MuEarth, tt.oe)
			if err != nil {
				t.Fatalf("ElemToRV: %v", err)
			}
			got, err := RVToElem(MuEarth, r, v)
			if err != nil {
				t.Fatalf("RVToElem: %v", err)
			}

			if math.Abs(got.A-tt.oe.A)/tt.oe.A > 1e-9 {
				t.Errorf("a = %.6f, want %.6f", got.A, tt.oe.A)
			}
			if math.Abs(got.E-tt.oe.E) > 1e-9 {
				t.Errorf("e = %.12f, want %.12f", got.E, tt.oe.E)
			}
			for _, c := range []struct {
				label     string
				got, want float64
			}{
				{"i", got.I, tt.oe.I},
				{"Omega", got.Omega, tt.oe.Omega},
				{"omega", got.ArgPeri, tt.oe.ArgPeri},
				{"f", got.F, tt.oe.F},
			} {
				if angleDiff(c.got, c.want) > 1e-7 {
					t.Errorf("%s = %.9f, want %.9f", c.label, c.got, c.want)
				}
			}
		})
	}
}

func TestElemToRVMagnitudes(t *testing.T) {
	oe := ClassicElements{A: 7000e3, E: 0.1, F: 0}
	r, v, err := ElemToRV(MuEarth, oe)
	if err != nil {
		t.Fatal(err)
	}
	rp := oe.A * (1 - oe.E)
	if math.Abs(r.Norm()-rp) > 1e-6 {
		t.Errorf("|r| at periapsis = %.3f, want %.3f", r.Norm(), rp)
	}
	vis := math.Sqrt(MuEarth * (2/rp - 1/oe.A))
	if math.Abs(v.Norm()-vis) > 1e-6 {
		t.Errorf("|v| = %.6f, want vis-viva %.6f", v.Norm(), vis)
	}
}

func TestUnsupportedOrbits(t *testing.T) {
	if _, _, err := ElemToRV(MuEarth, ClassicElements{A: 7000e3, E: 1.2}); !errors.Is(err, ErrUnsupportedOrbit) {
		t.Errorf("hyperbolic err = %v", err)
	}
	if _, _, err := ElemToRV(MuEarth, ClassicElements{A: -1}); !errors.Is(err, ErrUnsupportedOrbit) {
		t.Errorf("negative a err = %v", err)
	}
	r := dynamo.Vec3{7000e3, 0, 0}
	if _, err := RVToElem(MuEarth, r, dynamo.Vec3{20000, 0, 0}); !errors.Is(err, ErrUnsupportedOrbit) {
		t.Errorf("escape err = %v", err)
	}
}

func TestRadii2ae(t *testing.T) {
	a, e := Radii2ae(REarth+422e3, REarth+413e3)
	if math.Abs(a-(REarth+417.5e3)) > 1e-6 {
		t.Errorf("a = %f", a)
	}
	if e <= 0 || e > 1e-3 {
		t.Errorf("e = %f", e)
	}
}
