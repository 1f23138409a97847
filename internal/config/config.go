// Package config loads and validates the JSON run configuration: the rover
// set, the pairwise distance thresholds and the optional output/serving
// settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gnss-data/gnssfuse/internal/fusion"
)

// RoverConfig names one receiver and points at its input files. PosFile is
// the materialized position log consumed by fusion; ObsFile is the raw
// observation file handed to the external positioning engine when the log
// has to be (re)generated.
type RoverConfig struct {
	Name    string `json:"name"`
	PosFile string `json:"pos_file"`
	ObsFile string `json:"obs_file,omitempty"`
}

// PairThresholdConfig is the maximum allowed 3-D separation in meters for
// one unordered rover pair.
type PairThresholdConfig struct {
	RoverA       string  `json:"rover_a"`
	RoverB       string  `json:"rover_b"`
	MaxDistanceM float64 `json:"max_distance_m"`
}

// Config is the root run configuration.
//
// AxisSDThresholds entries (keyed "sdx"/"sdy"/"sdz") are accepted for
// compatibility but not consulted by the algorithm; they are reserved.
type Config struct {
	Rovers     []RoverConfig         `json:"rovers"`
	Base       *RoverConfig          `json:"base,omitempty"`
	Thresholds []PairThresholdConfig `json:"thresholds"`

	AxisSDThresholds map[string]float64 `json:"axis_sd_thresholds,omitempty"`

	Output   string `json:"output,omitempty"`
	Database string `json:"database,omitempty"`
	Listen   string `json:"listen,omitempty"`
}

// Load reads and validates a configuration file. The file must have a
// .json extension and stay under a sanity size cap.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks rover names are present and unique, every rover has a
// position log, and the threshold table covers every unordered rover pair
// with a positive distance.
func (c *Config) Validate() error {
	if len(c.Rovers) < 2 {
		return fmt.Errorf("at least two rovers are required, got %d", len(c.Rovers))
	}

	seen := make(map[string]bool)
	for i, r := range c.Rovers {
		if r.Name == "" {
			return fmt.Errorf("rover %d has no name", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rover name %q", r.Name)
		}
		seen[r.Name] = true
		if r.PosFile == "" {
			return fmt.Errorf("rover %q has no pos_file", r.Name)
		}
	}

	pairs := fusion.NewPairThresholds()
	for _, th := range c.Thresholds {
		if !seen[th.RoverA] || !seen[th.RoverB] {
			return fmt.Errorf("threshold references unknown rover pair (%s, %s)", th.RoverA, th.RoverB)
		}
		if th.RoverA == th.RoverB {
			return fmt.Errorf("threshold pairs a rover with itself: %s", th.RoverA)
		}
		if th.MaxDistanceM <= 0 {
			return fmt.Errorf("threshold for (%s, %s) must be positive, got %g", th.RoverA, th.RoverB, th.MaxDistanceM)
		}
		pairs.Set(th.RoverA, th.RoverB, th.MaxDistanceM)
	}

	// Every unordered pair must be covered before the run starts, not
	// discovered missing halfway through the epoch loop.
	for i := range c.Rovers {
		for j := i + 1; j < len(c.Rovers); j++ {
			if _, ok := pairs.Get(c.Rovers[i].Name, c.Rovers[j].Name); !ok {
				return fmt.Errorf("no threshold configured for pair (%s, %s)", c.Rovers[i].Name, c.Rovers[j].Name)
			}
		}
	}

	for key := range c.AxisSDThresholds {
		switch key {
		case "sdx", "sdy", "sdz":
		default:
			return fmt.Errorf("unknown axis threshold key %q", key)
		}
	}

	return nil
}

// PairThresholds builds the runtime threshold table.
func (c *Config) PairThresholds() *fusion.PairThresholds {
	pairs := fusion.NewPairThresholds()
	for _, th := range c.Thresholds {
		pairs.Set(th.RoverA, th.RoverB, th.MaxDistanceM)
	}
	return pairs
}

// RoverName returns a free default name of the form "Rover N".
func (c *Config) RoverName() string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("Rover %d", i)
		taken := false
		for _, r := range c.Rovers {
			if r.Name == name {
				taken = true
				break
			}
		}
		if !taken {
			return name
		}
	}
}
