package orbit

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/rs1sim/internal/dynamo"
)

func TestCentralBody(t *testing.T) {
	g := NewGravFactory()
	if _, err := g.CentralBody(); !errors.Is(err, ErrNoCentralBody) {
		t.Errorf("empty factory err = %v", err)
	}

	earth := g.CreateEarth()
	if again := g.CreateEarth(); again != earth {
		t.Error("CreateEarth should return the existing body")
	}
	if _, err := g.CentralBody(); !errors.Is(err, ErrNoCentralBody) {
		t.Errorf("unflagged err = %v", err)
	}

	earth.IsCentralBody = true
	got, err := g.CentralBody()
	if err != nil || got != earth {
		t.Fatalf("CentralBody = %v, %v", got, err)
	}

	sun := g.CreateSun()
	sun.IsCentralBody = true
	if _, err := g.CentralBody(); !errors.Is(err, ErrMultipleCentralBody) {
		t.Errorf("two central bodies err = %v", err)
	}
	moon := g.CreateMoon()
	if moon.Mu != MuMoon || moon.RadEquator != RMoon || moon.IsCentralBody {
		t.Errorf("unexpected moon %+v", moon)
	}
	bodies := g.Bodies()
	if len(bodies) != 3 || bodies[2] != moon {
		t.Errorf("bodies = %d, want earth, sun, moon", len(bodies))
	}
}

func TestPointMassAccel(t *testing.T) {
	earth := NewGravFactory().CreateEarth()
	r := dynamo.Vec3{REarth, 0, 0}
	a := earth.Accel(r)
	want := MuEarth / (REarth * REarth)
	if math.Abs(a[0]+want) > 1e-9 || a[1] != 0 || a[2] != 0 {
		t.Errorf("accel = %v, want [-%f 0 0]", a, want)
	}

	earth.UseJ2 = true
	aj := earth.Accel(r)
	if math.Abs(aj[0]) <= math.Abs(a[0]) {
		t.Error("J2 should strengthen equatorial gravity")
	}
}
