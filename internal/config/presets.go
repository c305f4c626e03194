package config

import (
	"sort"
	"time"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

// Presets are named starting configurations.
var Presets = map[string]func() *Config{
	"reference": DefaultConfig,
	"iss": func() *Config {
		c := DefaultConfig()
		a, _ := orbit.Radii2ae(orbit.REarth+422e3, orbit.REarth+413e3)
		c.Orbit = OrbitConfig{
			A: a, E: 0.0003492, I: 51.6439, Omega: 346.7648, ArgPeri: 165.4333, F: 298.6058,
		}
		return c
	},
	"pointing": func() *Config {
		c := DefaultConfig()
		c.Mode = "inertial3D"
		c.Duration = 20 * time.Minute
		return c
	},
	"tumble": func() *Config {
		c := DefaultConfig()
		c.Attitude.OmegaBNB = dynamo.Vec3{0.05, -0.08, 0.1}
		c.Mode = "inertial3D"
		return c
	},
	"rw-fault": func() *Config {
		c := DefaultConfig()
		c.Mode = "inertial3D"
		c.Faults = []FaultConfig{{Wheel: 2, At: 5 * time.Minute}}
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
