package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the run collectors. Each Registry owns its own Prometheus
// registry so runs in one process do not share series.
type Registry struct {
	reg *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	samples       *prometheus.GaugeVec
	values        *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rs1sim_runs_total",
				Help: "Total number of scenario runs by result.",
			},
			[]string{"scenario", "result"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rs1sim_stage_duration_seconds",
				Help:    "Wall-clock duration of scenario stages in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scenario", "stage"},
		),
		samples: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rs1sim_recorder_samples",
				Help: "Number of samples held by a recorder after the run.",
			},
			[]string{"scenario", "recorder"},
		),
		values: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rs1sim_telemetry_metric",
				Help: "Telemetry quality metrics evaluated after the run.",
			},
			[]string{"scenario", "metric"},
		),
	}
	r.reg.MustRegister(r.runsTotal, r.stageDuration, r.samples, r.values)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObserveStage(scenario, stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(scenario, stage).Observe(d.Seconds())
}

func (r *Registry) RunFinished(scenario string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.runsTotal.WithLabelValues(scenario, result).Inc()
}

func (r *Registry) SetSamples(scenario, recorder string, n int) {
	r.samples.WithLabelValues(scenario, recorder).Set(float64(n))
}

func (r *Registry) SetValues(scenario string, values map[string]float64) {
	for name, v := range values {
		r.values.WithLabelValues(scenario, name).Set(v)
	}
}

// WriteTextfile writes every collected series to path in the node-exporter
// textfile format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
