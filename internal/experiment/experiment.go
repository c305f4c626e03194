// Package experiment resolves a run configuration, runs the selected
// scenario and persists what it produced.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/logging"
	"github.com/san-kum/rs1sim/internal/metrics"
	"github.com/san-kum/rs1sim/internal/plotting"
	"github.com/san-kum/rs1sim/internal/scenario"
	"github.com/san-kum/rs1sim/internal/script"
	"github.com/san-kum/rs1sim/internal/storage"
)

const metricsFile = "metrics.prom"

// Source selects where a configuration comes from. Each layer overrides the
// previous one: preset, file, environment, script, Apply.
type Source struct {
	Preset string
	File   string
	Script string
	Apply  func(*config.Config)
}

// Resolve builds and validates the configuration described by src.
func Resolve(src Source) (*config.Config, error) {
	preset := src.Preset
	if preset == "" {
		preset = "reference"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", config.ErrInvalid, preset)
	}
	if src.File != "" {
		loaded, err := config.LoadOver(src.File, cfg)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if src.Script != "" {
		cfg.Script = src.Script
	}
	if cfg.Script != "" {
		if err := script.ApplyFile(cfg, cfg.Script); err != nil {
			return nil, err
		}
	}
	if src.Apply != nil {
		src.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type Experiment struct {
	cfg      *config.Config
	preset   string
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Registry
	out      io.Writer
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option { return func(e *Experiment) { e.logger = l } }

func WithMetrics(reg *metrics.Registry) Option { return func(e *Experiment) { e.metrics = reg } }

// WithOutput sets where shown figures are rendered.
func WithOutput(w io.Writer) Option { return func(e *Experiment) { e.out = w } }

func WithRegistry(r *Registry) Option { return func(e *Experiment) { e.registry = r } }

// WithPreset records the preset name in stored metadata.
func WithPreset(name string) Option { return func(e *Experiment) { e.preset = name } }

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	if e.metrics == nil && cfg.Output.Metrics {
		e.metrics = metrics.NewRegistry()
	}
	return e
}

// Result summarizes one finished run. RunID is empty unless the run was
// stored.
type Result struct {
	RunID     string
	Dir       string
	Figures   map[string]string
	Metrics   map[string]float64
	Recorders map[string]int
	Samples   int
	Elapsed   time.Duration
}

// Run builds the scenario, runs it and pulls its outputs. Saved runs get a
// directory in the store holding figures, telemetry and metadata. Shown
// runs write no files.
func (e *Experiment) Run(ctx context.Context, show bool) (*Result, error) {
	cfg := e.cfg
	build, err := e.registry.Get(cfg.Scenario)
	if err != nil {
		return nil, err
	}

	res := &Result{Dir: cfg.Output.Dir}
	var st *storage.Store
	if cfg.Output.SaveRun && !show {
		st, err = storage.Open(cfg.Output.Dir)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		res.RunID = storage.NewRunID()
		res.Dir = st.Dir(res.RunID)
	}

	sink := plotting.NewSink(res.Dir, cfg.Scenario, e.out)
	inst, err := build(*cfg, Env{Logger: e.logger, Sink: sink, Out: e.out})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	figures, err := scenario.Run(ctx, inst.Scenario, scenario.RunOptions{
		ModeRequest: cfg.Mode,
		Duration:    cfg.Duration,
		Logger:      e.logger,
		Metrics:     e.metrics,
	}, show)
	if err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	res.Figures = figures
	res.Metrics = inst.Evaluate()
	res.Recorders = inst.Recorders()

	if e.metrics != nil {
		e.metrics.SetValues(cfg.Scenario, res.Metrics)
		for name, n := range res.Recorders {
			e.metrics.SetSamples(cfg.Scenario, name, n)
		}
	}

	table := inst.Table()
	res.Samples = len(table.Rows)
	if st != nil {
		meta := storage.RunMetadata{
			ID:         res.RunID,
			Scenario:   cfg.Scenario,
			Preset:     e.preset,
			Mode:       cfg.Mode,
			DynRate:    cfg.DynRate,
			FswRate:    cfg.FswRate,
			Duration:   cfg.Duration.Seconds(),
			Integrator: cfg.Integrator,
			Figures:    figures,
			Metrics:    res.Metrics,
		}
		if _, err := st.Save(ctx, meta, table); err != nil {
			return nil, err
		}
		e.logger.Info("run stored", "run_id", res.RunID, "dir", res.Dir)
	}

	if cfg.Output.Metrics && !show {
		if err := os.MkdirAll(res.Dir, 0o755); err != nil {
			return nil, err
		}
		if err := e.metrics.WriteTextfile(filepath.Join(res.Dir, metricsFile)); err != nil {
			return nil, fmt.Errorf("experiment: write metrics: %w", err)
		}
	}
	return res, nil
}
