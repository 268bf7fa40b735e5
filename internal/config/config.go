// Package config loads the CLI's static per-run configuration — which
// literal strings must never be renamed and where the persistent
// rename-cache lives — from a YAML file, the same third-party decoder
// (gopkg.in/yaml.v2) the kwf2030-commons module in the pack requires.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is an obfuscation run's static configuration.
type Config struct {
	// CachePath is where internal/cache persists the spec-name
	// assignment map across runs. Empty means no caching.
	CachePath string `yaml:"cache_path"`
	// Whitelist lists literal strings that a rename plan must never
	// touch, regardless of what the plan file says.
	Whitelist []string `yaml:"whitelist"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) whitelisted() map[string]bool {
	out := make(map[string]bool, len(c.Whitelist))
	for _, s := range c.Whitelist {
		out[s] = true
	}
	return out
}

// FilterSpecNames drops any whitelisted name from an ordered spec-name
// rename plan, preserving order of what remains.
func (c *Config) FilterSpecNames(names []string) []string {
	if c == nil || len(c.Whitelist) == 0 {
		return names
	}
	blocked := c.whitelisted()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !blocked[n] {
			out = append(out, n)
		}
	}
	return out
}

// FilterTableNames drops any rename targeting a whitelisted string from
// an index→name rename plan.
func (c *Config) FilterTableNames(plan map[int]string) map[int]string {
	if c == nil || len(c.Whitelist) == 0 {
		return plan
	}
	blocked := c.whitelisted()
	out := make(map[int]string, len(plan))
	for idx, name := range plan {
		if !blocked[name] {
			out[idx] = name
		}
	}
	return out
}
