package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/rs1sim/internal/config"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

func TestApplyString(t *testing.T) {
	cfg := config.DefaultConfig()
	src := `
orbit{ a = R_EARTH + 500e3, e = 0.001, i = 97.4 }
attitude{ sigma_bn = {0.0, 0.1, 0.2}, sigma_rn = {0, 0, 0.5} }
mode("inertial3D")
duration(120)
fault(2, 60)
gains{ K = 5, integral_limit = 0.1 }
`
	if err := ApplyString(cfg, src); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Orbit.A != orbit.REarth+500e3 || cfg.Orbit.E != 0.001 || cfg.Orbit.I != 97.4 {
		t.Errorf("orbit not applied: %+v", cfg.Orbit)
	}
	if cfg.Orbit.Omega != 48.2 {
		t.Errorf("untouched raan changed to %f", cfg.Orbit.Omega)
	}
	if cfg.Attitude.SigmaBN != (dynamo.Vec3{0, 0.1, 0.2}) || cfg.Attitude.SigmaRN != (dynamo.Vec3{0, 0, 0.5}) {
		t.Errorf("attitude not applied: %+v", cfg.Attitude)
	}
	if cfg.Mode != "inertial3D" {
		t.Errorf("expected inertial3D, got %q", cfg.Mode)
	}
	if cfg.Duration != 2*time.Minute {
		t.Errorf("expected 2m, got %v", cfg.Duration)
	}
	if len(cfg.Faults) != 1 || cfg.Faults[0].Wheel != 2 || cfg.Faults[0].At != time.Minute {
		t.Errorf("unexpected faults %+v", cfg.Faults)
	}
	if cfg.Gains.K != 5 || cfg.Gains.P != 30 || cfg.Gains.IntegralLimit != 0.1 {
		t.Errorf("unexpected gains %+v", cfg.Gains)
	}
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ic.lua")
	if err := os.WriteFile(path, []byte(`mode("standby")`+"\n"+`duration(30)`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Mode = "inertial3D"
	if err := ApplyFile(cfg, path); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Mode != "standby" || cfg.Duration != 30*time.Second {
		t.Errorf("unexpected config mode=%s duration=%v", cfg.Mode, cfg.Duration)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `orbit{ a = `},
		{"bad duration", `duration(-1)`},
		{"wrong type", `orbit(5)`},
		{"runtime", `error("boom")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ApplyString(config.DefaultConfig(), tt.src); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := ApplyFile(config.DefaultConfig(), filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected error for missing file")
	}
}
