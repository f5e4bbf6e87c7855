// Package config provides configuration loading, validation and access for
// the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Vehicle VehicleConfig `yaml:"vehicle"`
	Cargo   CargoConfig   `yaml:"cargo"`
	Sim     SimConfig     `yaml:"sim"`
	Screen  ScreenConfig  `yaml:"screen"`
}

// GridConfig holds road network generation parameters.
// Width and Height are in macro-cells; each macro-cell expands to a 4x4
// block of lane nodes.
type GridConfig struct {
	Width              int     `yaml:"width"`
	Height             int     `yaml:"height"`
	RoadDensity        float64 `yaml:"road_density"`        // fraction of macro-cells carrying roads
	DestinationDensity float64 `yaml:"destination_density"` // probability of a destination per eligible lane node
	ChargingDensity    float64 `yaml:"charging_density"`    // probability that a destination is also a charging point
}

// VehicleConfig holds vehicle creation and behavior parameters.
type VehicleConfig struct {
	Count           int `yaml:"count"`
	MaxLoad         int `yaml:"max_load"`
	MaxEnergy       int `yaml:"max_energy"`
	ChargingSpeed   int `yaml:"charging_speed"`
	LowEnergy       int `yaml:"low_energy"`       // below this a vehicle diverts to the nearest charging point
	PerceptionRange int `yaml:"perception_range"` // Chebyshev radius of the perceived node set
}

// CargoConfig holds cargo creation parameters.
type CargoConfig struct {
	Count     int `yaml:"count"`
	MaxWeight int `yaml:"max_weight"`
}

// SimConfig holds run-level parameters.
type SimConfig struct {
	Seed        int64 `yaml:"seed"` // -1 = derive from system entropy
	CollectData bool  `yaml:"collect_data"`
}

// ScreenConfig holds display settings for the graphical viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Unknown fields in the
// file are ignored; missing fields keep their default values. The merged
// configuration is validated before being returned.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects parameter values the generator or the model cannot work
// with. Out-of-range values are reported, never silently clamped.
func (c *Config) Validate() error {
	if c.Grid.Width < 1 || c.Grid.Height < 1 {
		return fmt.Errorf("config: grid size %dx%d: both dimensions must be at least 1", c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.RoadDensity < 0 || c.Grid.RoadDensity > 1 {
		return fmt.Errorf("config: road_density %v out of range [0, 1]", c.Grid.RoadDensity)
	}
	if c.Grid.DestinationDensity < 0 || c.Grid.DestinationDensity > 1 {
		return fmt.Errorf("config: destination_density %v out of range [0, 1]", c.Grid.DestinationDensity)
	}
	if c.Grid.ChargingDensity < 0 || c.Grid.ChargingDensity > 1 {
		return fmt.Errorf("config: charging_density %v out of range [0, 1]", c.Grid.ChargingDensity)
	}
	if c.Vehicle.Count < 0 {
		return fmt.Errorf("config: vehicle count %d must not be negative", c.Vehicle.Count)
	}
	if c.Cargo.Count < 0 {
		return fmt.Errorf("config: cargo count %d must not be negative", c.Cargo.Count)
	}
	if c.Vehicle.MaxLoad < 1 {
		return fmt.Errorf("config: vehicle max_load %d must be at least 1", c.Vehicle.MaxLoad)
	}
	if c.Cargo.MaxWeight < 1 {
		return fmt.Errorf("config: cargo max_weight %d must be at least 1", c.Cargo.MaxWeight)
	}
	if c.Vehicle.MaxEnergy < 1 {
		return fmt.Errorf("config: vehicle max_energy %d must be at least 1", c.Vehicle.MaxEnergy)
	}
	if c.Vehicle.ChargingSpeed < 1 {
		return fmt.Errorf("config: vehicle charging_speed %d must be at least 1", c.Vehicle.ChargingSpeed)
	}
	if c.Vehicle.LowEnergy < 0 || c.Vehicle.LowEnergy > c.Vehicle.MaxEnergy {
		return fmt.Errorf("config: vehicle low_energy %d out of range [0, max_energy]", c.Vehicle.LowEnergy)
	}
	if c.Vehicle.PerceptionRange < 1 {
		return fmt.Errorf("config: vehicle perception_range %d must be at least 1", c.Vehicle.PerceptionRange)
	}
	if c.Sim.Seed < -1 {
		return fmt.Errorf("config: seed %d invalid (use -1 to derive from system entropy)", c.Sim.Seed)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration as YAML text.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
