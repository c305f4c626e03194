package integrators

import "github.com/san-kum/rs1sim/internal/dynamo"

// tableau holds the coefficients of an explicit Runge-Kutta scheme. a is
// strictly lower triangular.
type tableau struct {
	a [][]float64
	b []float64
	c []float64
}

var (
	eulerTableau = tableau{
		a: [][]float64{nil},
		b: []float64{1},
		c: []float64{0},
	}
	heunTableau = tableau{
		a: [][]float64{nil, {1}},
		b: []float64{0.5, 0.5},
		c: []float64{0, 1},
	}
	rk4Tableau = tableau{
		a: [][]float64{nil, {0.5}, {0, 0.5}, {0, 0, 1}},
		b: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		c: []float64{0, 0.5, 0.5, 1},
	}
)

// ExplicitRK is a fixed-step explicit Runge-Kutta integrator. Stage buffers
// are reused between steps, so one value must not be shared by concurrent
// propagations.
type ExplicitRK struct {
	name  string
	tab   tableau
	k     []dynamo.State
	stage dynamo.State
}

func newExplicitRK(name string, tab tableau) *ExplicitRK {
	return &ExplicitRK{name: name, tab: tab, k: make([]dynamo.State, len(tab.b))}
}

// NewEuler is first order.
func NewEuler() *ExplicitRK { return newExplicitRK("euler", eulerTableau) }

// NewRK2 is Heun's second-order method.
func NewRK2() *ExplicitRK { return newExplicitRK("rk2", heunTableau) }

// NewRK4 is the classical fourth-order method.
func NewRK4() *ExplicitRK { return newExplicitRK("rk4", rk4Tableau) }

func (r *ExplicitRK) Name() string { return r.name }

func (r *ExplicitRK) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	if len(r.stage) != n {
		r.stage = make(dynamo.State, n)
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
	}

	for s, row := range r.tab.a {
		copy(r.stage, x)
		for j, aij := range row {
			if aij == 0 {
				continue
			}
			for i := range r.stage {
				r.stage[i] += dt * aij * r.k[j][i]
			}
		}
		// Derive may return a buffer it reuses.
		copy(r.k[s], dyn.Derive(r.stage, u, t+r.tab.c[s]*dt))
	}

	out := x.Clone()
	for s, bs := range r.tab.b {
		for i := range out {
			out[i] += dt * bs * r.k[s][i]
		}
	}
	return out
}
