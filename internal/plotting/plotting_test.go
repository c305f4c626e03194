package plotting

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
)

func circularTrack(n int) (times []float64, r, v, sigma []dynamo.Vec3) {
	const radius = 7000e3
	for i := range n {
		th := 2 * math.Pi * float64(i) / float64(n)
		times = append(times, float64(i))
		r = append(r, dynamo.Vec3{radius * math.Cos(th), radius * math.Sin(th), 0})
		v = append(v, dynamo.Vec3{-7500 * math.Sin(th), 7500 * math.Cos(th), 0})
		sigma = append(sigma, dynamo.Vec3{})
	}
	return
}

func TestSaveAllWritesSVG(t *testing.T) {
	dir := t.TempDir()
	s := NewSink(dir, "rs1", &bytes.Buffer{})
	times, r, v, sigma := circularTrack(50)
	PlotOrbit(s, r, 6378e3)
	PlotOrientation(s, times, r, v, sigma)

	paths, err := s.SaveAll([]string{OrbitFigure, OrientationFigure})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	want := filepath.Join(dir, "rs1_orbit.svg")
	if paths[OrbitFigure] != want {
		t.Errorf("expected %s, got %s", want, paths[OrbitFigure])
	}
	data, err := os.ReadFile(paths[OrientationFigure])
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(data), "<svg") || !strings.Contains(string(data), "<path") {
		t.Error("svg output missing path element")
	}
}

func TestSaveAllUnknownFigure(t *testing.T) {
	s := NewSink(t.TempDir(), "", nil)
	_, err := s.SaveAll([]string{"missing"})
	if !errors.Is(err, ErrUnknownFigure) {
		t.Errorf("expected ErrUnknownFigure, got %v", err)
	}

	s.Figure("blank")
	_, err = s.SaveAll([]string{"blank"})
	if !errors.Is(err, ErrEmptyFigure) {
		t.Errorf("expected ErrEmptyFigure, got %v", err)
	}
}

func TestShowRendersEveryFigure(t *testing.T) {
	var out bytes.Buffer
	s := NewSink(t.TempDir(), "", &out)
	times, r, v, sigma := circularTrack(40)
	PlotOrbit(s, r, 0)
	PlotOrientation(s, times, r, v, sigma)

	if err := s.Show(); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "Spacecraft orbit") || !strings.Contains(text, "Body axes vs orbit frame") {
		t.Errorf("missing captions in output:\n%s", text)
	}
}

func TestClearAll(t *testing.T) {
	s := NewSink(t.TempDir(), "", nil)
	s.Figure("a")
	s.Figure("b")
	s.Figure("a")
	if got := s.Names(); len(got) != 2 || got[0] != "a" {
		t.Errorf("unexpected names %v", got)
	}
	s.ClearAll()
	if len(s.Names()) != 0 {
		t.Error("expected no figures after ClearAll")
	}
}

func TestOrientationAlignedBody(t *testing.T) {
	s := NewSink(t.TempDir(), "", nil)
	// Body frame equal to the orbit frame at θ=0: b1=r̂, b2=θ̂, b3=ĥ.
	r := []dynamo.Vec3{{7000e3, 0, 0}}
	v := []dynamo.Vec3{{0, 7500, 0}}
	sigma := []dynamo.Vec3{attitude.FromDCM(dynamo.Identity3())}

	f := PlotOrientation(s, []float64{0}, r, v, sigma)
	for _, sr := range f.Series {
		if math.Abs(sr.Y[0]-1) > 1e-12 {
			t.Errorf("%s: expected 1, got %f", sr.Label, sr.Y[0])
		}
	}
}
