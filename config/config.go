// Package config loads the optional YAML defaults file for the capture
// tools. Every field has a built-in default; command line flags override
// whatever the file supplies.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds per-invocation capture defaults.
type Config struct {
	// Host connects via TCPIP::<host>::INSTR and skips discovery.
	Host    string `yaml:"host"`
	Channel int    `yaml:"channel"`
	Length  string `yaml:"length"`
	Type    string `yaml:"type"`
	Output  string `yaml:"output"`
	// Vendor is the substring matched against *IDN? during discovery.
	Vendor string `yaml:"vendor"`
}

// Default returns the built-in capture defaults.
func Default() *Config {
	return &Config{
		Channel: 1,
		Length:  "ALL",
		Type:    "RAW",
		Output:  "waveform.png",
		Vendor:  "Batronix",
	}
}

// Load reads a YAML defaults file over the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Channel < 1 || cfg.Channel > 4 {
		return nil, fmt.Errorf("parse config: channel %d outside 1..4", cfg.Channel)
	}
	return cfg, nil
}
