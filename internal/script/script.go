// Package script applies Lua initial-condition scripts to a scenario
// configuration.
//
// A script calls the global functions below; every call overrides the
// matching configuration fields and leaves the others untouched.
//
//	orbit{ a = R_EARTH + 500e3, e = 0.001, i = 97.4 }
//	attitude{ sigma_bn = {0.1, 0.2, -0.3}, omega_bn_b = {0, 0, 0} }
//	mode("inertial3D")
//	duration(20 * 60)   -- seconds
//	fault(2, 300)       -- stop RW2 after 300 s
//	gains{ K = 5, P = 40 }
package script

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Shopify/go-lua"

	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

// ApplyFile runs the script at path against cfg.
func ApplyFile(cfg *config.Config, path string) error {
	state := newState(cfg)
	if err := lua.LoadFile(state, path, ""); err != nil {
		return fmt.Errorf("script: load %s: %w", path, err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("script: run %s: %w", path, err)
	}
	return nil
}

// ApplyString runs source against cfg.
func ApplyString(cfg *config.Config, source string) error {
	state := newState(cfg)
	if err := lua.LoadString(state, source); err != nil {
		return fmt.Errorf("script: load: %w", err)
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("script: run: %w", err)
	}
	return nil
}

func newState(cfg *config.Config) *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)

	b := &binding{cfg: cfg}
	for _, fn := range []lua.RegistryFunction{
		{Name: "orbit", Function: b.orbit},
		{Name: "attitude", Function: b.attitude},
		{Name: "mode", Function: b.mode},
		{Name: "duration", Function: b.duration},
		{Name: "fault", Function: b.fault},
		{Name: "gains", Function: b.gains},
	} {
		state.PushGoFunction(fn.Function)
		state.SetGlobal(fn.Name)
	}

	for name, v := range map[string]float64{
		"R_EARTH":  orbit.REarth,
		"MU_EARTH": orbit.MuEarth,
		"RPM":      2 * math.Pi / 60,
	} {
		state.PushNumber(v)
		state.SetGlobal(name)
	}
	return state
}

type binding struct {
	cfg *config.Config
}

func (b *binding) orbit(state *lua.State) int {
	lua.CheckType(state, 1, lua.TypeTable)
	fields := numberFields(state, 1)
	o := &b.cfg.Orbit
	for key, dst := range map[string]*float64{
		"a":             &o.A,
		"e":             &o.E,
		"i":             &o.I,
		"raan":          &o.Omega,
		"arg_periapsis": &o.ArgPeri,
		"true_anomaly":  &o.F,
	} {
		if v, ok := fields[key]; ok {
			*dst = v
		}
	}
	return 0
}

func (b *binding) attitude(state *lua.State) int {
	lua.CheckType(state, 1, lua.TypeTable)
	vecs := vectorFields(state, 1)
	att := &b.cfg.Attitude
	for key, dst := range map[string]*dynamo.Vec3{
		"sigma_bn":   &att.SigmaBN,
		"omega_bn_b": &att.OmegaBNB,
		"sigma_rn":   &att.SigmaRN,
	} {
		if v, ok := vecs[key]; ok {
			*dst = v
		}
	}
	return 0
}

func (b *binding) mode(state *lua.State) int {
	b.cfg.Mode = strings.TrimSpace(lua.CheckString(state, 1))
	return 0
}

func (b *binding) duration(state *lua.State) int {
	sec := lua.CheckNumber(state, 1)
	if sec <= 0 {
		lua.ArgumentError(state, 1, "duration must be positive")
	}
	b.cfg.Duration = time.Duration(sec * float64(time.Second))
	return 0
}

func (b *binding) fault(state *lua.State) int {
	wheel := lua.CheckInteger(state, 1)
	at := lua.CheckNumber(state, 2)
	b.cfg.Faults = append(b.cfg.Faults, config.FaultConfig{
		Wheel: wheel,
		At:    time.Duration(at * float64(time.Second)),
	})
	return 0
}

func (b *binding) gains(state *lua.State) int {
	lua.CheckType(state, 1, lua.TypeTable)
	fields := numberFields(state, 1)
	g := &b.cfg.Gains
	for key, dst := range map[string]*float64{
		"K":              &g.K,
		"P":              &g.P,
		"Ki":             &g.Ki,
		"integral_limit": &g.IntegralLimit,
	} {
		if v, ok := fields[key]; ok {
			*dst = v
		}
	}
	return 0
}

// numberFields collects the numeric string-keyed fields of a table.
func numberFields(state *lua.State, index int) map[string]float64 {
	out := map[string]float64{}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString && state.TypeOf(-1) == lua.TypeNumber {
			key, _ := state.ToString(-2)
			v, _ := state.ToNumber(-1)
			out[key] = v
		}
		state.Pop(1)
	}
	return out
}

// vectorFields collects string-keyed fields holding three-element arrays.
func vectorFields(state *lua.State, index int) map[string]dynamo.Vec3 {
	out := map[string]dynamo.Vec3{}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString && state.TypeOf(-1) == lua.TypeTable {
			key, _ := state.ToString(-2)
			if v, ok := toVec3(state, -1); ok {
				out[key] = v
			}
		}
		state.Pop(1)
	}
	return out
}

func toVec3(state *lua.State, index int) (dynamo.Vec3, bool) {
	var v dynamo.Vec3
	seen := 0
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		k, kok := state.ToInteger(-2)
		x, xok := state.ToNumber(-1)
		if kok && xok && k >= 1 && k <= 3 {
			v[k-1] = x
			seen++
		}
		state.Pop(1)
	}
	return v, seen == 3
}
