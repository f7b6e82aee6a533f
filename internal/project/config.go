// Package project persists floorpack configuration files and run records.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/piwi3910/floorpack/internal/model"
)

// ErrUnknownProfile is returned when a named settings profile does not exist.
var ErrUnknownProfile = errors.New("unknown profile")

// Config is the contents of a TOML configuration file. Top-level keys set
// the base settings; each [profiles.<name>] table overrides some of them.
type Config struct {
	model.Settings
	Profiles map[string]model.Settings `toml:"profiles,omitempty"`
}

// rawConfig defers profile decoding so profiles can be layered on the base.
type rawConfig struct {
	model.Settings
	Profiles map[string]toml.Primitive `toml:"profiles"`
}

// DefaultConfig returns the built-in settings and no profiles.
func DefaultConfig() Config {
	return Config{Settings: model.DefaultSettings()}
}

// DefaultConfigDir returns ~/.floorpack, or ./.floorpack without a home directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".floorpack")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// LoadConfig reads a Config from path. Missing keys keep their defaults and
// a missing file yields DefaultConfig with no error. Unknown keys are an
// error so typos do not silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}

	raw := rawConfig{Settings: model.DefaultSettings()}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg := Config{Settings: raw.Settings}
	if len(raw.Profiles) > 0 {
		cfg.Profiles = make(map[string]model.Settings, len(raw.Profiles))
	}
	for name, prim := range raw.Profiles {
		s := raw.Settings
		if err := md.PrimitiveDecode(prim, &s); err != nil {
			return Config{}, fmt.Errorf("parse %s: profile %q: %w", path, name, err)
		}
		cfg.Profiles[name] = s
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("parse %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if err := Validate(cfg.Settings); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	for _, name := range cfg.ProfileNames() {
		if err := Validate(cfg.Profiles[name]); err != nil {
			return Config{}, fmt.Errorf("%s: profile %q: %w", path, name, err)
		}
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as TOML, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

// Profile returns the named settings. The empty name selects the base.
func (c Config) Profile(name string) (model.Settings, error) {
	if name == "" {
		return c.Settings, nil
	}
	s, ok := c.Profiles[name]
	if !ok {
		return model.Settings{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return s, nil
}

// ProfileNames returns the profile names in sorted order.
func (c Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects settings the optimizer cannot run with.
func Validate(s model.Settings) error {
	var errs []error
	if !s.Strategy.Valid() {
		errs = append(errs, fmt.Errorf("unknown strategy %q", s.Strategy))
	}
	if s.GroupSize < 1 {
		errs = append(errs, fmt.Errorf("group_size must be at least 1, got %d", s.GroupSize))
	}
	if s.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry_attempts must be at least 1, got %d", s.RetryAttempts))
	}
	if s.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("time_limit must not be negative, got %g", s.TimeLimit))
	}
	if s.NodeLimit < 0 {
		errs = append(errs, fmt.Errorf("node_limit must not be negative, got %d", s.NodeLimit))
	}
	if s.Genetic.MutationRate < 0 || s.Genetic.MutationRate > 1 {
		errs = append(errs, fmt.Errorf("genetic.mutation_rate must be in [0, 1], got %g", s.Genetic.MutationRate))
	}
	return errors.Join(errs...)
}
