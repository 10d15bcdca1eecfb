// Package config loads the run configuration from YAML. Absent fields keep
// their defaults, so a config file only needs to name what it overrides.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skylift/skylift/internal/core/flight"
	"github.com/skylift/skylift/internal/core/observability/log"
	"github.com/skylift/skylift/internal/core/policy"
	"github.com/skylift/skylift/internal/server"
)

// Config is the full run configuration.
type Config struct {
	Flight  flight.Config `json:"flight" yaml:"flight"`
	Trainer policy.Config `json:"trainer" yaml:"trainer"`
	Server  server.Config `json:"server" yaml:"server"`
	Logging log.Config    `json:"logging" yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Flight:  flight.DefaultConfig(),
		Trainer: policy.DefaultConfig(),
		Server:  server.DefaultConfig(),
		Logging: log.Config{Level: "info", Encoding: "console"},
	}
}

// Load decodes YAML from r on top of the defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and decodes the given YAML file.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Flight.Validate(); err != nil {
		return err
	}
	if err := c.Trainer.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return nil
}
