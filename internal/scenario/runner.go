package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/metrics"
	"github.com/san-kum/rs1sim/internal/telemetry"
)

const (
	DefaultModeRequest = "standby"
	DefaultDuration    = 10 * time.Minute
)

// ExecutionError wraps an engine failure with the stage it happened in.
type ExecutionError struct {
	Scenario string
	Stage    string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("scenario %s: %s: %v", e.Scenario, e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// RunOptions configure RunScenario. The zero value runs in standby for ten
// minutes of simulated time.
type RunOptions struct {
	ModeRequest string
	Duration    time.Duration
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Metrics     *metrics.Registry
}

func (o RunOptions) withDefaults() RunOptions {
	if o.ModeRequest == "" {
		o.ModeRequest = DefaultModeRequest
	}
	if o.Duration <= 0 {
		o.Duration = DefaultDuration
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Tracer == nil {
		o.Tracer = telemetry.Tracer()
	}
	return o
}

// RunScenario initializes the engine, sets the mode request and stop time,
// and executes. Failures abort the run; nothing is retried.
func RunScenario(ctx context.Context, sc Scenario, opts RunOptions) (err error) {
	opts = opts.withDefaults()

	switch sc.State() {
	case LoggingWired:
	case Completed:
		return ErrAlreadyCompleted
	default:
		return &TransitionError{From: sc.State(), To: Initialized}
	}

	ctx, span := opts.Tracer.Start(ctx, "scenario.run", trace.WithAttributes(
		attribute.String("scenario", sc.Name()),
		attribute.String("mode_request", opts.ModeRequest),
		attribute.Float64("duration_s", opts.Duration.Seconds()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if opts.Metrics != nil {
			opts.Metrics.RunFinished(sc.Name(), err)
		}
	}()

	eng := sc.Session().Engine
	log := opts.Logger.With("scenario", sc.Name())

	if err := stage(ctx, opts, sc.Name(), "initialize", func(ctx context.Context) error {
		return eng.InitializeSimulation(ctx)
	}); err != nil {
		return err
	}
	if err := sc.Advance(Initialized); err != nil {
		return err
	}

	eng.SetModeRequest(opts.ModeRequest)
	stop := engine.DurationToNano(opts.Duration)
	eng.ConfigureStopTime(stop)
	if err := sc.Advance(Executing); err != nil {
		return err
	}
	log.Info("executing", "mode", opts.ModeRequest, "stop_time_min", engine.NanoToMin(stop))

	if err := stage(ctx, opts, sc.Name(), "execute", func(ctx context.Context) error {
		return eng.ExecuteSimulation(ctx)
	}); err != nil {
		return err
	}
	if err := sc.Advance(Completed); err != nil {
		return err
	}
	log.Info("completed", "sim_time_min", engine.NanoToMin(eng.CurrentNanos()))
	return nil
}

func stage(ctx context.Context, opts RunOptions, name, stage string, fn func(context.Context) error) error {
	ctx, span := opts.Tracer.Start(ctx, "scenario."+stage)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if opts.Metrics != nil {
		opts.Metrics.ObserveStage(name, stage, time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &ExecutionError{Scenario: name, Stage: stage, Err: err}
	}
	return nil
}

// Run runs the scenario and then pulls its outputs.
func Run(ctx context.Context, sc Scenario, opts RunOptions, show bool) (map[string]string, error) {
	if err := RunScenario(ctx, sc, opts); err != nil {
		return nil, err
	}
	start := time.Now()
	figures, err := sc.PullOutputs(show)
	if opts.Metrics != nil {
		opts.Metrics.ObserveStage(sc.Name(), "pull_outputs", time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: pull outputs: %w", sc.Name(), err)
	}
	return figures, nil
}
