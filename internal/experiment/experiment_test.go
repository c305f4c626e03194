package experiment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/scenario/rs1"
	"github.com/san-kum/rs1sim/internal/storage"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if got := r.List(); len(got) != 1 || got[0] != rs1.Name {
		t.Errorf("unexpected scenarios %v", got)
	}
	if _, err := r.Get("rs1"); err != nil {
		t.Errorf("rs1 not registered: %v", err)
	}
	if _, err := r.Get("apollo"); err == nil {
		t.Error("expected unknown scenario error")
	}
}

func TestResolveLayers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(file, []byte("mode: inertial3D\nduration: 3m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lua := filepath.Join(dir, "setup.lua")
	if err := os.WriteFile(lua, []byte("duration(240)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RS1SIM_OUTPUT_DIR", dir)

	cfg, err := Resolve(Source{
		Preset: "iss",
		File:   file,
		Script: lua,
		Apply:  func(c *config.Config) { c.Output.SaveRun = true },
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cfg.Orbit.I != 51.6439 {
		t.Errorf("preset not applied: i=%f", cfg.Orbit.I)
	}
	if cfg.Mode != "inertial3D" {
		t.Errorf("file not applied: mode=%s", cfg.Mode)
	}
	if cfg.Output.Dir != dir {
		t.Errorf("env not applied: dir=%s", cfg.Output.Dir)
	}
	if cfg.Duration != 4*time.Minute {
		t.Errorf("script not applied: duration=%v", cfg.Duration)
	}
	if !cfg.Output.SaveRun {
		t.Error("override not applied")
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := Resolve(Source{Preset: "nope"}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	_, err := Resolve(Source{Apply: func(c *config.Config) { c.Hub.Mass = 0 }})
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if _, err := Resolve(Source{File: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("expected missing file error")
	}
}

func shortConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Duration = 10 * time.Second
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestRunStoresRun(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Output.SaveRun = true
	cfg.Output.Metrics = true

	res, err := New(cfg, WithPreset("reference")).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.RunID == "" || res.Samples != 101 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Recorders[rs1.AttRecorder] != 101 {
		t.Errorf("unexpected recorder counts %v", res.Recorders)
	}
	for _, p := range res.Figures {
		if filepath.Dir(p) != res.Dir {
			t.Errorf("figure %s outside run dir %s", p, res.Dir)
		}
	}

	st, err := storage.Open(cfg.Output.Dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	meta, err := st.Load(res.RunID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Preset != "reference" || meta.Samples != 101 || len(meta.Figures) != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if _, ok := meta.Metrics["orbital_energy_drift"]; !ok {
		t.Errorf("metrics not stored: %v", meta.Metrics)
	}
	tel, err := st.LoadTelemetry(res.RunID)
	if err != nil {
		t.Fatalf("load telemetry: %v", err)
	}
	if len(tel.Columns) != len(TelemetryColumns)+3 || tel.Columns[len(tel.Columns)-1] != "rw3_speed" {
		t.Errorf("unexpected columns %v", tel.Columns)
	}

	prom, err := os.ReadFile(filepath.Join(res.Dir, metricsFile))
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(prom), `rs1sim_recorder_samples{recorder="sNavAttRec",scenario="rs1"} 101`) {
		t.Errorf("missing recorder gauge:\n%s", prom)
	}
}

func TestRunShowDoesNotStore(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Output.SaveRun = true
	var out bytes.Buffer

	res, err := New(cfg, WithOutput(&out)).Run(context.Background(), true)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.RunID != "" || len(res.Figures) != 0 {
		t.Errorf("show run stored: %+v", res)
	}
	if out.Len() == 0 {
		t.Error("expected rendered figures")
	}
	entries, _ := os.ReadDir(cfg.Output.Dir)
	if len(entries) != 0 {
		t.Errorf("show run wrote %d entries", len(entries))
	}
}

func TestRunUnknownScenario(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Scenario = "apollo"
	if _, err := New(cfg).Run(context.Background(), false); err == nil {
		t.Error("expected unknown scenario error")
	}
}

func TestRunCustomRegistry(t *testing.T) {
	cfg := shortConfig(t)
	cfg.Scenario = "broken"
	reg := NewRegistry()
	reg.Register("broken", func(config.Config, Env) (*Instance, error) {
		return nil, errors.New("no vehicle")
	})
	_, err := New(cfg, WithRegistry(reg)).Run(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "no vehicle") {
		t.Errorf("expected builder error, got %v", err)
	}
}

func TestTelemetryTable(t *testing.T) {
	tel := rs1.Telemetry{
		Times:    []uint64{0, 1e9},
		TimeMin:  []float64{0, 1.0 / 60},
		SigmaBN:  []dynamo.Vec3{{0.1, 0, 0}, {0.2, 0, 0}},
		OmegaBNB: []dynamo.Vec3{{}, {}},
		RBNN:     []dynamo.Vec3{{7e6, 0, 0}, {7e6, 7500, 0}},
		VBNN:     []dynamo.Vec3{{0, 7500, 0}, {0, 7500, 0}},
	}
	table := TelemetryTable(tel)
	if len(table.Columns) != len(TelemetryColumns) || len(table.Rows) != 2 {
		t.Fatalf("unexpected table %+v", table)
	}
	if table.Times[1] != 1 || table.Rows[1][1] != 7500 || table.Rows[1][6] != 0.2 {
		t.Errorf("unexpected rows %v", table.Rows)
	}

	tel.Wheels = [][]float64{{1, 2}, {3}}
	table = TelemetryTable(tel)
	if len(table.Columns) != len(TelemetryColumns)+2 || table.Rows[1][13] != 0 {
		t.Errorf("wheel columns not padded: %v %v", table.Columns, table.Rows)
	}
}

func TestBatchRunsConcurrently(t *testing.T) {
	dir := t.TempDir()
	var items []BatchItem
	for _, name := range []string{"reference", "pointing", "tumble"} {
		cfg := config.GetPreset(name)
		cfg.Duration = 5 * time.Second
		cfg.Output.Dir = dir
		cfg.Output.Metrics = false
		items = append(items, BatchItem{Name: name, Config: cfg})
	}

	results, err := NewBatch(items, 2).Run(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Samples != 51 || res.RunID == "" {
			t.Errorf("item %d: unexpected result %+v", i, res)
		}
	}

	st, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	runs, err := st.List(context.Background())
	if err != nil || len(runs) != 3 {
		t.Errorf("expected 3 stored runs, got %d (%v)", len(runs), err)
	}
}

func TestBatchSeparatesUnstoredFigures(t *testing.T) {
	dir := t.TempDir()
	var items []BatchItem
	for _, name := range []string{"reference", "tumble"} {
		cfg := config.GetPreset(name)
		cfg.Duration = 5 * time.Second
		cfg.Output.Dir = dir
		cfg.Output.SaveRun = false
		cfg.Output.Metrics = false
		items = append(items, BatchItem{Name: name, Config: cfg})
	}

	results, err := NewBatch(items, 2).Run(context.Background())
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	seen := make(map[string]string)
	for i, res := range results {
		if res.RunID != "" || len(res.Figures) != 2 {
			t.Fatalf("item %d: unexpected result %+v", i, res)
		}
		for _, p := range res.Figures {
			if other, ok := seen[p]; ok {
				t.Errorf("%s and %s share figure %s", other, items[i].Name, p)
			}
			seen[p] = items[i].Name
			if _, err := os.Stat(p); err != nil {
				t.Errorf("figure missing: %v", err)
			}
		}
	}
	if items[0].Config.Output.Dir != dir {
		t.Errorf("caller config mutated: %s", items[0].Config.Output.Dir)
	}
}

func TestBatchReportsFailure(t *testing.T) {
	good := shortConfig(t)
	bad := shortConfig(t)
	bad.Scenario = "apollo"

	results, err := NewBatch([]BatchItem{{Name: "good", Config: good}, {Name: "bad", Config: bad}}, 0).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "batch bad") {
		t.Fatalf("expected failure of bad item, got %v", err)
	}
	if results[0] == nil || results[0].Samples != 101 {
		t.Errorf("good item should still run: %+v", results[0])
	}
}

func TestCampaign(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "campaign.yaml")
	doc := `name: sweep
runs:
  - name: quiet
    preset: reference
    duration: 30s
  - preset: tumble
    mode: standby
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCampaign(path)
	if err != nil {
		t.Fatalf("load campaign: %v", err)
	}
	items, err := c.Items(func(cfg *config.Config) { cfg.Output.Dir = dir })
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 || items[0].Name != "quiet" || items[1].Name != "sweep-2" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Config.Duration != 30*time.Second || items[0].Config.Output.Dir != dir {
		t.Errorf("run overrides not applied: %+v", items[0].Config)
	}
	if items[1].Config.Mode != "standby" || items[1].Config.Attitude.OmegaBNB != (dynamo.Vec3{0.05, -0.08, 0.1}) {
		t.Errorf("preset or mode not applied: %+v", items[1].Config)
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: none\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCampaign(empty); err == nil {
		t.Error("expected error for campaign without runs")
	}
}
