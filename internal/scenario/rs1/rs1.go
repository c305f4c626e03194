// Package rs1 is the RebelSat-1 scenario: a spacecraft with three reaction
// wheels in Earth orbit, driven by the standby and inertial pointing flight
// modes.
package rs1

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/dynamics"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/fsw"
	"github.com/san-kum/rs1sim/internal/logging"
	"github.com/san-kum/rs1sim/internal/metrics"
	"github.com/san-kum/rs1sim/internal/nav"
	"github.com/san-kum/rs1sim/internal/orbit"
	"github.com/san-kum/rs1sim/internal/plotting"
	"github.com/san-kum/rs1sim/internal/scenario"
	"github.com/san-kum/rs1sim/internal/session"
	"github.com/san-kum/rs1sim/internal/spacecraft"
	"github.com/san-kum/rs1sim/internal/viz"
)

const Name = "rs1"

// Recorder names.
const (
	AttRecorder    = "sNavAttRec"
	TransRecorder  = "sNavTransRec"
	WheelsRecorder = "rwSpeedRec"
)

type options struct {
	logger  *slog.Logger
	sink    *plotting.ResultsSink
	out     io.Writer
	vizFile string
	wheels  bool
	config  *config.Config
	metrics *metrics.Registry
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithSink replaces the default sink, which saves under the configured
// output directory.
func WithSink(s *plotting.ResultsSink) Option { return func(o *options) { o.sink = s } }

// WithOutput sets where shown figures are rendered.
func WithOutput(w io.Writer) Option { return func(o *options) { o.out = w } }

// WithVizFile enables the visualization feed. It overrides the configured
// viz file.
func WithVizFile(path string) Option { return func(o *options) { o.vizFile = path } }

// WithWheelRecorder also records reaction-wheel speeds.
func WithWheelRecorder() Option { return func(o *options) { o.wheels = true } }

// WithConfig selects the configuration used by Run.
func WithConfig(cfg *config.Config) Option { return func(o *options) { o.config = cfg } }

// WithMetrics records run statistics into reg.
func WithMetrics(reg *metrics.Registry) Option { return func(o *options) { o.metrics = reg } }

// Scenario is the RS1 scenario.
type Scenario struct {
	*scenario.Base

	cfg    config.Config
	dyn    *dynamics.Models
	fsw    *fsw.Models
	sink   *plotting.ResultsSink
	logger *slog.Logger

	attRec    *engine.Recorder[nav.AttMsg]
	transRec  *engine.Recorder[nav.TransMsg]
	wheelRec  *engine.Recorder[spacecraft.RWSpeedMsg]
	recWheels bool
	feed      *viz.Feed

	initialElements orbit.ClassicElements
}

// New builds the session, binds the dynamics and FSW model sets, configures
// initial conditions and wires logging. A failing visualization feed is
// logged and skipped.
func New(cfg config.Config, opts ...Option) (*Scenario, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.sink == nil {
		o.sink = plotting.NewSink(cfg.Output.Dir, Name, o.out)
	}
	o.sink.SetLogger(o.logger)

	sess, err := session.New(cfg.DynRate, cfg.FswRate, session.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	sc := &Scenario{
		Base:      scenario.NewBase(Name, sess),
		cfg:       cfg,
		sink:      o.sink,
		logger:    o.logger.With("scenario", Name),
		recWheels: o.wheels,
	}

	if err := sc.BindModels(sc.dynamicsFactory(), fsw.Factory{Gains: cfg.Gains, SigmaR2N: cfg.Attitude.SigmaRN}); err != nil {
		return nil, err
	}
	if err := sc.bindHandles(); err != nil {
		return nil, err
	}
	if err := sc.createFaultEvents(); err != nil {
		return nil, err
	}
	if err := scenario.Setup(sc); err != nil {
		return nil, err
	}

	vizFile := cfg.VizFile
	if o.vizFile != "" {
		vizFile = o.vizFile
	}
	if vizFile != "" {
		sc.enableViz(vizFile)
	}
	return sc, nil
}

// dynamicsFactory applies the configured hub before FSW reads its inertia.
func (s *Scenario) dynamicsFactory() session.ModelFactory {
	f := dynamics.Factory{
		Integrator: s.cfg.Integrator,
		Wheels:     s.cfg.Wheels,
		NavNoise:   s.cfg.NavNoise,
	}
	return session.ModelFactoryFunc(func(sess *session.Session, rate float64) (session.ModelSet, error) {
		ms, err := f.Build(sess, rate)
		if err != nil {
			return nil, err
		}
		dyn, err := dynamics.From(ms)
		if err != nil {
			return nil, err
		}
		h := s.cfg.Hub
		dyn.SCObject.Hub.Mass = h.Mass
		dyn.SCObject.Hub.Inertia = dynamo.Diag3(h.Inertia[0], h.Inertia[1], h.Inertia[2])
		return dyn, nil
	})
}

func (s *Scenario) bindHandles() error {
	dms, err := s.Session().DynModel()
	if err != nil {
		return err
	}
	if s.dyn, err = dynamics.From(dms); err != nil {
		return err
	}
	fms, err := s.Session().FswModel()
	if err != nil {
		return err
	}
	s.fsw, err = fsw.From(fms)
	return err
}

// createFaultEvents stops the configured wheels once their time is reached.
func (s *Scenario) createFaultEvents() error {
	period := engine.SecToNano(s.cfg.DynRate)
	for i, f := range s.cfg.Faults {
		idx := f.Wheel - 1
		if idx < 0 || idx >= s.dyn.RWStateEffector.NumWheels() {
			return fmt.Errorf("%w: %d", spacecraft.ErrUnknownWheel, f.Wheel)
		}
		at := engine.DurationToNano(f.At)
		err := s.Session().CreateNewEvent(fmt.Sprintf("rwFault%d", i), period, true,
			func(e *engine.Engine) bool { return e.CurrentNanos() >= at },
			func(e *engine.Engine) error {
				s.logger.Warn("reaction wheel failed", "wheel", f.Wheel, "time_s", engine.NanoToSec(e.CurrentNanos()))
				return s.dyn.RWStateEffector.FailWheel(idx)
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) enableViz(path string) {
	feed, err := viz.Enable(path, s.dyn.SCObject.ScStateOutMsg, s.dyn.RWStateEffector.SpeedOutMsg, s.logger)
	if err != nil {
		s.logger.Warn("visualization disabled", "err", err)
		return
	}
	if err := s.Session().AddModelToTaskWithPriority(dynamics.TaskName, feed, 0); err != nil {
		s.logger.Warn("visualization disabled", "err", err)
		feed.Close()
		return
	}
	s.feed = feed
}

// ConfigureInitialConditions sets Earth as the central body, derives the
// initial position and velocity from the configured elements and seeds the
// hub attitude.
func (s *Scenario) ConfigureInitialConditions() error {
	earth := s.dyn.GravFactory.CreateEarth()
	earth.IsCentralBody = true

	r, v, err := s.dyn.ElementsToState(s.cfg.Orbit.Elements())
	if err != nil {
		return err
	}
	oe, err := s.dyn.StateToElements(r, v)
	if err != nil {
		return err
	}
	s.initialElements = oe

	hub := &s.dyn.SCObject.Hub
	hub.RCNNInit = r
	hub.VCNNInit = v
	hub.SigmaBNInit = s.cfg.Attitude.SigmaBN
	hub.OmegaBNBInit = s.cfg.Attitude.OmegaBNB

	s.logger.Debug("initial conditions", "elements", oe.String(), "r_BN_N", r, "v_BN_N", v)
	return nil
}

// LogOutputs records the navigation messages every dynamics step.
func (s *Scenario) LogOutputs() error {
	sn := s.dyn.SimpleNavObject
	s.attRec = sn.AttOutMsg.Recorder().Named(AttRecorder)
	s.transRec = sn.TransOutMsg.Recorder().Named(TransRecorder)
	recs := []engine.Model{s.attRec, s.transRec}
	if s.recWheels {
		s.wheelRec = s.dyn.RWStateEffector.SpeedOutMsg.Recorder().Named(WheelsRecorder)
		recs = append(recs, s.wheelRec)
	}
	for _, rec := range recs {
		if err := s.Session().AddModelToTask(dynamics.TaskName, rec); err != nil {
			return err
		}
	}
	return nil
}

// PullOutputs builds the orbit and orientation figures. With show set the
// figures are rendered and the returned map is empty; otherwise they are
// saved and the map holds their paths.
func (s *Scenario) PullOutputs(show bool) (map[string]string, error) {
	if s.feed != nil {
		if err := s.feed.Close(); err != nil {
			s.logger.Warn("visualization feed close", "err", err)
		}
	}
	tel := s.Telemetry()

	s.sink.ClearAll()
	plotting.PlotOrbit(s.sink, tel.RBNN, orbit.REarth)
	plotting.PlotOrientation(s.sink, tel.TimeMin, tel.RBNN, tel.VBNN, tel.SigmaBN)

	if show {
		if err := s.sink.Show(); err != nil {
			return nil, err
		}
		return map[string]string{}, nil
	}
	return s.sink.SaveAll([]string{plotting.OrbitFigure, plotting.OrientationFigure})
}

// InitialElements returns the elements re-derived from the initial state.
func (s *Scenario) InitialElements() orbit.ClassicElements { return s.initialElements }

func (s *Scenario) Dynamics() *dynamics.Models  { return s.dyn }
func (s *Scenario) FSW() *fsw.Models            { return s.fsw }
func (s *Scenario) Config() config.Config       { return s.cfg }
func (s *Scenario) Sink() *plotting.ResultsSink { return s.sink }

// Recorders returns the navigation recorders.
func (s *Scenario) Recorders() (*engine.Recorder[nav.AttMsg], *engine.Recorder[nav.TransMsg]) {
	return s.attRec, s.transRec
}

// VizFrames reports how many visualization frames were written, or -1 when
// the feed is off.
func (s *Scenario) VizFrames() int {
	if s.feed == nil {
		return -1
	}
	return s.feed.Frames()
}

// Run builds the RS1 scenario from the selected configuration (the
// reference configuration by default), runs it and pulls its outputs.
func Run(ctx context.Context, showPlots bool, opts ...Option) (map[string]string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if o.out == nil {
		opts = append(opts, WithOutput(os.Stdout))
	}
	sc, err := New(*cfg, opts...)
	if err != nil {
		return nil, err
	}
	return scenario.Run(ctx, sc, RunOptionsFor(cfg, o.logger, o.metrics), showPlots)
}

// RunOptionsFor maps a configuration onto runner options.
func RunOptionsFor(cfg *config.Config, logger *slog.Logger, reg *metrics.Registry) scenario.RunOptions {
	return scenario.RunOptions{
		ModeRequest: cfg.Mode,
		Duration:    cfg.Duration,
		Logger:      logger,
		Metrics:     reg,
	}
}
