// Package optim searches configuration parameters for the value that
// minimizes a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/rs1sim/internal/config"
)

var ErrNoResult = errors.New("optim: no candidate produced the metric")

// Param is one searched dimension. Apply writes a candidate value into a
// configuration copy.
type Param struct {
	Name   string
	Values []float64
	Apply  func(cfg *config.Config, v float64)
}

// GainParams returns the named MRP feedback gains as search dimensions.
// Known names are K, P, Ki and integral_limit.
func GainParams(values map[string][]float64) ([]Param, error) {
	var params []Param
	for _, name := range []string{"K", "P", "Ki", "integral_limit"} {
		vs, ok := values[name]
		if !ok {
			continue
		}
		p := Param{Name: name, Values: vs}
		switch name {
		case "K":
			p.Apply = func(c *config.Config, v float64) { c.Gains.K = v }
		case "P":
			p.Apply = func(c *config.Config, v float64) { c.Gains.P = v }
		case "Ki":
			p.Apply = func(c *config.Config, v float64) { c.Gains.Ki = v }
		case "integral_limit":
			p.Apply = func(c *config.Config, v float64) { c.Gains.IntegralLimit = v }
		}
		params = append(params, p)
	}
	if len(params) != len(values) {
		return nil, fmt.Errorf("optim: unknown gain in %v", keys(values))
	}
	return params, nil
}

// EvalFunc runs one candidate configuration and returns its metrics.
type EvalFunc func(ctx context.Context, cfg *config.Config) (map[string]float64, error)

type Candidate struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	params []Param
}

func NewGridSearch(params []Param) *GridSearch {
	return &GridSearch{params: params}
}

// Size is the number of candidates in the grid.
func (g *GridSearch) Size() int {
	n := 1
	for _, p := range g.params {
		n *= len(p.Values)
	}
	return n
}

// Search evaluates every grid point on a copy of base and returns the
// candidate with the lowest metric, plus all candidates in grid order.
// Failed candidates are kept with their error and skipped for the minimum.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, eval EvalFunc) (Candidate, []Candidate, error) {
	best := Candidate{Value: math.Inf(1)}
	var all []Candidate
	err := g.searchRecursive(ctx, 0, base, make(map[string]float64), metric, eval, &best, &all)
	if err != nil {
		return Candidate{}, all, err
	}
	if best.Params == nil {
		return Candidate{}, all, ErrNoResult
	}
	return best, all, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	cfg *config.Config,
	current map[string]float64,
	metric string,
	eval EvalFunc,
	best *Candidate,
	all *[]Candidate,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.params) {
		cand := Candidate{Params: current}
		values, err := eval(ctx, cfg)
		val, ok := values[metric]
		switch {
		case err != nil:
			cand.Err = err
		case !ok || math.IsNaN(val):
			cand.Err = fmt.Errorf("optim: metric %q missing", metric)
		default:
			cand.Value = val
			if val < best.Value {
				*best = cand
			}
		}
		*all = append(*all, cand)
		return nil
	}

	p := g.params[depth]
	for _, v := range p.Values {
		next := cfg.Clone()
		p.Apply(next, v)
		params := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			params[k] = cv
		}
		params[p.Name] = v
		if err := g.searchRecursive(ctx, depth+1, next, params, metric, eval, best, all); err != nil {
			return err
		}
	}
	return nil
}

func keys(m map[string][]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
