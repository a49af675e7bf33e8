// Package workload drives a searchlist with concurrent inserters, searchers
// and removers. It backs cmd/bench and examples/scenario.
package workload

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Preset names accepted by Preset.
const (
	PresetRandom   = "random"
	PresetScenario = "scenario"
)

// Config describes one run. A YAML file may set any field; zero fields keep
// the value they had before decoding.
type Config struct {
	Preset string `yaml:"preset"`
	Policy string `yaml:"policy"` // strict | legacy

	// Preloaded items are Base, Base+Step, Base+2*Step, ...
	Preload     int `yaml:"preload"`
	PreloadBase int `yaml:"preload_base"`
	PreloadStep int `yaml:"preload_step"`

	Inserters int `yaml:"inserters"`
	Searchers int `yaml:"searchers"`
	Removers  int `yaml:"removers"`

	// Ops is the number of operations per worker; 0 runs until Duration.
	Ops      int           `yaml:"ops"`
	Duration time.Duration `yaml:"duration"`

	// Indexed makes worker i always use item i; otherwise items are drawn
	// uniformly from [0, Keys).
	Indexed bool `yaml:"indexed"`
	Keys    int  `yaml:"keys"`

	// OpTimeout bounds each admission wait; 0 waits as long as the run.
	OpTimeout time.Duration `yaml:"op_timeout"`
	Seed      int64         `yaml:"seed"`

	CheckInvariant bool `yaml:"check_invariant"`
}

// Defaults is the random preset: a read-heavy mix for a fixed duration.
func Defaults() Config {
	return Config{
		Preset:      PresetRandom,
		Policy:      "strict",
		Preload:     512,
		PreloadStep: 1,
		Inserters:   4,
		Searchers:   16,
		Removers:    2,
		Duration:    10 * time.Second,
		Keys:        1024,
		Seed:        1,
	}
}

// Scenario is the classic demonstration: 25 preloaded items 5, 7, ..., 53,
// then 20 inserters, 40 searchers and 10 removers started together, worker i
// touching item i once.
func Scenario() Config {
	return Config{
		Preset:      PresetScenario,
		Policy:      "strict",
		Preload:     25,
		PreloadBase: 5,
		PreloadStep: 2,
		Inserters:   20,
		Searchers:   40,
		Removers:    10,
		Ops:         1,
		Indexed:     true,
		Seed:        1,
	}
}

// Preset returns the named preset.
func Preset(name string) (Config, error) {
	switch name {
	case "", PresetRandom:
		return Defaults(), nil
	case PresetScenario:
		return Scenario(), nil
	default:
		return Config{}, fmt.Errorf("unknown preset %q (use %s or %s)", name, PresetRandom, PresetScenario)
	}
}

// Load overlays the YAML file at path onto base.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read workload file: %w", err)
	}
	cfg := base
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse workload file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first field that cannot be run.
func (c Config) Validate() error {
	switch {
	case c.Policy != "strict" && c.Policy != "legacy":
		return fmt.Errorf("unknown policy %q (use strict or legacy)", c.Policy)
	case c.Preload < 0 || c.Inserters < 0 || c.Searchers < 0 || c.Removers < 0:
		return errors.New("counts must not be negative")
	case c.Inserters+c.Searchers+c.Removers == 0:
		return errors.New("no workers")
	case c.Ops < 0:
		return errors.New("ops must not be negative")
	case c.Ops == 0 && c.Duration <= 0:
		return errors.New("either ops or duration must be set")
	case !c.Indexed && c.Keys <= 0:
		return errors.New("keys must be positive unless indexed")
	case c.OpTimeout < 0:
		return errors.New("op_timeout must not be negative")
	case c.Policy == "legacy" && c.Duration <= 0 && c.OpTimeout <= 0:
		// Legacy wake-ups can strand a remover behind a finished insert.
		return errors.New("legacy policy needs duration or op_timeout to bound stranded removers")
	}
	return nil
}
