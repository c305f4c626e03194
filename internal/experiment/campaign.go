package experiment

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/rs1sim/internal/config"
	"gopkg.in/yaml.v3"
)

// Campaign is a YAML list of runs executed as one batch.
type Campaign struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []CampaignRun `yaml:"runs"`
}

// CampaignRun resolves like the run command: preset, then config file,
// environment and script, then Duration and Mode when set.
type CampaignRun struct {
	Name     string        `yaml:"name"`
	Preset   string        `yaml:"preset"`
	Config   string        `yaml:"config"`
	Script   string        `yaml:"script"`
	Mode     string        `yaml:"mode"`
	Duration time.Duration `yaml:"duration"`
}

func LoadCampaign(path string) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Campaign
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("experiment: parse campaign %s: %w", path, err)
	}
	if len(c.Runs) == 0 {
		return nil, fmt.Errorf("experiment: campaign %s has no runs", path)
	}
	return &c, nil
}

// Items resolves every run. apply runs last on each configuration.
func (c *Campaign) Items(apply func(*config.Config)) ([]BatchItem, error) {
	items := make([]BatchItem, 0, len(c.Runs))
	for i, run := range c.Runs {
		name := run.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", c.Name, i+1)
		}
		cfg, err := Resolve(Source{
			Preset: run.Preset,
			File:   run.Config,
			Script: run.Script,
			Apply: func(cfg *config.Config) {
				if run.Mode != "" {
					cfg.Mode = run.Mode
				}
				if run.Duration > 0 {
					cfg.Duration = run.Duration
				}
				if apply != nil {
					apply(cfg)
				}
			},
		})
		if err != nil {
			return nil, fmt.Errorf("campaign run %s: %w", name, err)
		}
		items = append(items, BatchItem{Name: name, Config: cfg})
	}
	return items, nil
}
