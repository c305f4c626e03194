package experiment

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/plotting"
	"github.com/san-kum/rs1sim/internal/scenario"
	"github.com/san-kum/rs1sim/internal/scenario/rs1"
	"github.com/san-kum/rs1sim/internal/storage"
)

// Env carries what a builder needs besides the configuration.
type Env struct {
	Logger *slog.Logger
	Sink   *plotting.ResultsSink
	Out    io.Writer
}

// Instance is a constructed scenario plus the accessors the experiment
// needs after the run.
type Instance struct {
	Scenario  scenario.Scenario
	Table     func() storage.Table
	Evaluate  func() map[string]float64
	Recorders func() map[string]int
}

type Builder func(cfg config.Config, env Env) (*Instance, error)

type Registry struct {
	scenarios map[string]Builder
}

// NewRegistry returns a registry holding the built-in scenarios.
func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Builder)}
	r.Register(rs1.Name, buildRS1)
	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.scenarios[name] = b
}

func (r *Registry) Get(name string) (Builder, error) {
	b, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	return b, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildRS1(cfg config.Config, env Env) (*Instance, error) {
	opts := []rs1.Option{rs1.WithLogger(env.Logger), rs1.WithWheelRecorder()}
	if env.Sink != nil {
		opts = append(opts, rs1.WithSink(env.Sink))
	}
	if env.Out != nil {
		opts = append(opts, rs1.WithOutput(env.Out))
	}
	sc, err := rs1.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Instance{
		Scenario: sc,
		Table:    func() storage.Table { return TelemetryTable(sc.Telemetry()) },
		Evaluate: sc.Evaluate,
		Recorders: func() map[string]int {
			att, trans := sc.Recorders()
			return map[string]int{rs1.AttRecorder: att.Len(), rs1.TransRecorder: trans.Len()}
		},
	}, nil
}

// TelemetryColumns are the stored RS1 telemetry columns, before the
// optional wheel speeds.
var TelemetryColumns = []string{
	"r_x", "r_y", "r_z",
	"v_x", "v_y", "v_z",
	"sigma_1", "sigma_2", "sigma_3",
	"omega_1", "omega_2", "omega_3",
}

// TelemetryTable flattens RS1 telemetry into a storage table.
func TelemetryTable(tel rs1.Telemetry) storage.Table {
	cols := append([]string(nil), TelemetryColumns...)
	wheels := 0
	if len(tel.Wheels) == tel.Len() && tel.Len() > 0 {
		wheels = len(tel.Wheels[0])
		for i := range wheels {
			cols = append(cols, fmt.Sprintf("rw%d_speed", i+1))
		}
	}
	out := storage.Table{Columns: cols, Times: tel.Seconds(), Rows: make([][]float64, tel.Len())}
	for i, x := range tel.States() {
		row := make([]float64, 0, len(cols))
		row = append(row, x...)
		if wheels > 0 {
			ws := tel.Wheels[i]
			for j := range wheels {
				v := 0.0
				if j < len(ws) {
					v = ws[j]
				}
				row = append(row, v)
			}
		}
		out.Rows[i] = row
	}
	return out
}
