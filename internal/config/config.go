// Package config provides configuration management for graphsnap.
//
// A config file sets the durable preferences of an installation (output
// directory, formats, filter tiers); command-line flags override it per
// run. Missing values fall back to defaults, so a config file is never
// required.
//
// Config file locations (priority order):
//  1. $GRAPHSNAP_CONFIG
//  2. ./graphsnap.yaml
//  3. $XDG_CONFIG_HOME/graphsnap/config.yaml
//  4. ~/.config/graphsnap/config.yaml
//  5. /etc/graphsnap/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.TargetDir == "" {
		c.TargetDir = "~/.graphsnap"
	}
	if c.BaseName == "" {
		c.BaseName = "snapshot"
	}
	if c.NodeName == "" {
		c.NodeName = "/snapshot"
	}
	if c.SpecInputDir == "" {
		c.SpecInputDir = filepath.Join(c.TargetDir, "yaml")
	}
	if c.ParamTimeout == 0 {
		c.ParamTimeout = Duration(2 * time.Second)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// EffectiveTargetDir returns TargetDir with a leading ~ expanded.
func (c *Config) EffectiveTargetDir() string {
	return ExpandHome(c.TargetDir)
}

// EffectiveSpecInputDir returns SpecInputDir with a leading ~ expanded.
func (c *Config) EffectiveSpecInputDir() string {
	return ExpandHome(c.SpecInputDir)
}

// EffectiveArchivePath returns the run archive location, defaulting to a
// database file under the target directory.
func (c *Config) EffectiveArchivePath() string {
	if c.ArchivePath != "" {
		return ExpandHome(c.ArchivePath)
	}
	return filepath.Join(c.EffectiveTargetDir(), "graphsnap.db")
}

// Validate rejects configurations a snapshot run cannot work with.
func (c *Config) Validate() error {
	if !c.Formats.Any() {
		return fmt.Errorf("no output format selected")
	}
	if c.ParamTimeout < 0 {
		return fmt.Errorf("negative parameter timeout %s", c.ParamTimeout.Duration())
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	formats := ""
	for _, f := range []struct {
		on   bool
		name string
	}{
		{c.Formats.YAML, "yaml"},
		{c.Formats.JSON, "json"},
		{c.Formats.Human, "human"},
		{c.Formats.Graph, "graph"},
		{c.Formats.Archive, "archive"},
	} {
		if f.on {
			if formats != "" {
				formats += ","
			}
			formats += f.name
		}
	}

	return fmt.Sprintf("target: %s, base: %s, formats: [%s], specs: %s",
		c.EffectiveTargetDir(), c.BaseName, formats, c.EffectiveSpecInputDir())
}
