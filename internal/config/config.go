// Package config loads run configurations for the stepwise CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kmoren/stepwise/internal/control"
	"github.com/kmoren/stepwise/internal/sim"
)

const (
	DefaultRTol     = 1e-3
	DefaultATol     = 1e-6
	DefaultSafety   = 0.9
	DefaultIFactor  = 10.0
	DefaultDFactor  = 0.2
	DefaultDuration = 10.0
)

type Config struct {
	Model    string  `yaml:"model"`
	Solver   string  `yaml:"solver"`
	T0       float64 `yaml:"t0"`
	Duration float64 `yaml:"duration"`
	DT0      float64 `yaml:"dt0"`

	RTol       float64   `yaml:"rtol"`
	ATol       float64   `yaml:"atol"`
	Safety     float64   `yaml:"safety"`
	IFactor    float64   `yaml:"ifactor"`
	DFactor    float64   `yaml:"dfactor"`
	DtMin      float64   `yaml:"dtmin"`
	DtMax      float64   `yaml:"dtmax"`
	ForceDtMin bool      `yaml:"force_dtmin"`
	StepTs     []float64 `yaml:"step_ts"`
	JumpTs     []float64 `yaml:"jump_ts"`

	MaxSteps uint `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "decay",
		Solver:     "rk45",
		Duration:   DefaultDuration,
		RTol:       DefaultRTol,
		ATol:       DefaultATol,
		Safety:     DefaultSafety,
		IFactor:    DefaultIFactor,
		DFactor:    DefaultDFactor,
		ForceDtMin: true,
	}
}

// Load reads a YAML config, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Controller extracts the step-size controller configuration.
func (c *Config) Controller() control.Config {
	return control.Config{
		RTol:       c.RTol,
		ATol:       c.ATol,
		Safety:     c.Safety,
		IFactor:    c.IFactor,
		DFactor:    c.DFactor,
		DtMin:      c.DtMin,
		DtMax:      c.DtMax,
		ForceDtMin: c.ForceDtMin,
		StepTs:     c.StepTs,
		JumpTs:     c.JumpTs,
	}
}

// Options extracts the solve-loop options.
func (c *Config) Options() sim.Options {
	return sim.Options{
		DT0:           c.DT0,
		MaxSteps:      c.MaxSteps,
		ValidateState: true,
	}
}
