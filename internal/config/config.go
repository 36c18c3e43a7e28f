// Package config loads the CLI host's YAML configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "500ms". yaml.v3 has no native duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// File is the on-disk watch configuration.
type File struct {
	// CheckPath is the probe endpoint (absolute URL). Required.
	CheckPath string `yaml:"check_path"`

	// CheckInterval is the periodic re-probe cadence. Zero disables the
	// timer.
	CheckInterval Duration `yaml:"check_interval"`

	// Silent suppresses diagnostic logging.
	Silent bool `yaml:"silent"`

	// IgnorePaths is a regexp; matching navigation paths bypass detection.
	IgnorePaths string `yaml:"ignore_paths"`

	// ScanAssets enables same-origin asset checking each cycle.
	ScanAssets bool `yaml:"scan_assets"`

	// AssetDebounce and NotifyDebounce override the correlation and
	// confirmation windows. Zero keeps the defaults.
	AssetDebounce  Duration `yaml:"asset_debounce"`
	NotifyDebounce Duration `yaml:"notify_debounce"`
}

// Load reads and validates a config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required fields and pattern syntax.
func (f *File) Validate() error {
	if f.CheckPath == "" {
		return fmt.Errorf("check_path is required")
	}
	if f.CheckInterval < 0 {
		return fmt.Errorf("check_interval must not be negative")
	}
	if _, err := f.IgnorePattern(); err != nil {
		return err
	}
	return nil
}

// IgnorePattern compiles the ignore_paths regexp, or returns nil when
// unset.
func (f *File) IgnorePattern() (*regexp.Regexp, error) {
	if f.IgnorePaths == "" {
		return nil, nil
	}
	re, err := regexp.Compile(f.IgnorePaths)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore_paths pattern: %w", err)
	}
	return re, nil
}
