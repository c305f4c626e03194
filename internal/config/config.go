// Package config loads scenario configuration from YAML with presets and
// environment overrides.
//
// Precedence, lowest first: DefaultConfig, preset, file, environment, then
// whatever the caller sets explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/fsw"
	"github.com/san-kum/rs1sim/internal/integrators"
	"github.com/san-kum/rs1sim/internal/nav"
	"github.com/san-kum/rs1sim/internal/orbit"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

const (
	DefaultRate      = 0.1
	DefaultDuration  = 10 * time.Minute
	DefaultMode      = "standby"
	DefaultOutputDir = "runs"
	DefaultScenario  = "rs1"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Scenario   string        `yaml:"scenario"`
	DynRate    float64       `yaml:"dyn_rate"`
	FswRate    float64       `yaml:"fsw_rate"`
	Integrator string        `yaml:"integrator"`
	Mode       string        `yaml:"mode"`
	Duration   time.Duration `yaml:"duration"`

	Orbit    OrbitConfig              `yaml:"orbit"`
	Attitude AttitudeConfig           `yaml:"attitude"`
	Hub      HubConfig                `yaml:"hub"`
	Wheels   []spacecraft.WheelConfig `yaml:"wheels,omitempty"`
	Gains    fsw.Gains                `yaml:"gains"`
	NavNoise nav.Noise                `yaml:"nav_noise"`
	Faults   []FaultConfig            `yaml:"faults,omitempty"`

	Output   OutputConfig `yaml:"output"`
	VizFile  string       `yaml:"viz_file,omitempty"`
	Script   string       `yaml:"script,omitempty"`
	LogLevel string       `yaml:"log_level"`
}

// OrbitConfig holds classical elements. A is in meters, angles in degrees.
type OrbitConfig struct {
	A       float64 `yaml:"a"`
	E       float64 `yaml:"e"`
	I       float64 `yaml:"i"`
	Omega   float64 `yaml:"raan"`
	ArgPeri float64 `yaml:"arg_periapsis"`
	F       float64 `yaml:"true_anomaly"`
}

// Elements converts to radians.
func (o OrbitConfig) Elements() orbit.ClassicElements {
	return orbit.ClassicElements{
		A:       o.A,
		E:       o.E,
		I:       o.I * orbit.D2R,
		Omega:   o.Omega * orbit.D2R,
		ArgPeri: o.ArgPeri * orbit.D2R,
		F:       o.F * orbit.D2R,
	}
}

type AttitudeConfig struct {
	SigmaBN  dynamo.Vec3 `yaml:"sigma_bn"`
	OmegaBNB dynamo.Vec3 `yaml:"omega_bn_b"`
	// SigmaRN is the inertial pointing target used in inertial3D mode.
	SigmaRN dynamo.Vec3 `yaml:"sigma_rn"`
}

type HubConfig struct {
	Mass    float64     `yaml:"mass"`
	Inertia dynamo.Vec3 `yaml:"inertia_diag"`
}

// FaultConfig stops one reaction wheel at a simulated time. Wheel is
// 1-based.
type FaultConfig struct {
	Wheel int           `yaml:"wheel"`
	At    time.Duration `yaml:"at"`
}

type OutputConfig struct {
	Dir     string `yaml:"dir"`
	SaveRun bool   `yaml:"save_run"`
	Metrics bool   `yaml:"metrics"`
}

// EnvOverrides are the environment variables read by ApplyEnv.
type EnvOverrides struct {
	OutputDir string        `env:"RS1SIM_OUTPUT_DIR"`
	LogLevel  string        `env:"RS1SIM_LOG_LEVEL"`
	Mode      string        `env:"RS1SIM_MODE"`
	Duration  time.Duration `env:"RS1SIM_DURATION"`
	VizFile   string        `env:"RS1SIM_VIZ_FILE"`
	Script    string        `env:"RS1SIM_SCRIPT"`
}

// DefaultConfig is the reference scenario.
func DefaultConfig() *Config {
	return &Config{
		Scenario:   DefaultScenario,
		DynRate:    DefaultRate,
		FswRate:    DefaultRate,
		Integrator: "rk4",
		Mode:       DefaultMode,
		Duration:   DefaultDuration,
		Orbit: OrbitConfig{
			A: 7000e3, E: 0.1, I: 33.3, Omega: 48.2, ArgPeri: 347.8, F: 85.3,
		},
		Attitude: AttitudeConfig{
			SigmaBN:  dynamo.Vec3{0.1, 0.2, -0.3},
			OmegaBNB: dynamo.Vec3{0.001, -0.01, 0.03},
		},
		Hub: HubConfig{
			Mass:    750,
			Inertia: dynamo.Vec3{900, 800, 600},
		},
		Gains: fsw.DefaultGains(),
		Output: OutputConfig{
			Dir:     DefaultOutputDir,
			SaveRun: true,
			Metrics: true,
		},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver decodes the file at path on top of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays non-empty environment overrides.
func (c *Config) ApplyEnv() error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	if o.OutputDir != "" {
		c.Output.Dir = o.OutputDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if o.Duration > 0 {
		c.Duration = o.Duration
	}
	if o.VizFile != "" {
		c.VizFile = o.VizFile
	}
	if o.Script != "" {
		c.Script = o.Script
	}
	return nil
}

// Validate checks the values the engine cannot default.
func (c *Config) Validate() error {
	switch {
	case c.DynRate <= 0 || c.FswRate <= 0:
		return fmt.Errorf("%w: rates must be positive (dyn=%g fsw=%g)", ErrInvalid, c.DynRate, c.FswRate)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	case c.Orbit.A <= 0:
		return fmt.Errorf("%w: semi-major axis must be positive", ErrInvalid)
	case c.Orbit.E < 0 || c.Orbit.E >= 1:
		return fmt.Errorf("%w: eccentricity %g outside [0, 1)", ErrInvalid, c.Orbit.E)
	case c.Hub.Mass <= 0:
		return fmt.Errorf("%w: hub mass must be positive", ErrInvalid)
	}
	for i, v := range c.Hub.Inertia {
		if v <= 0 {
			return fmt.Errorf("%w: hub inertia[%d] must be positive", ErrInvalid, i)
		}
	}
	if _, err := integrators.ByName(c.Integrator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for _, f := range c.Faults {
		if f.Wheel < 1 || f.At < 0 {
			return fmt.Errorf("%w: fault %+v", ErrInvalid, f)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Wheels != nil {
		out.Wheels = append([]spacecraft.WheelConfig(nil), c.Wheels...)
	}
	if c.Faults != nil {
		out.Faults = append([]FaultConfig(nil), c.Faults...)
	}
	return &out
}
