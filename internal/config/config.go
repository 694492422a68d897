// Package config loads the simulation configuration.
//
// Precedence, lowest first: preset defaults, config file, MEMESIM_* environment
// variables, explicit overrides. Loading a .env file into the environment is
// left to the caller. The result is validated
// and returned by value.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"solana-memebot-sim/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. MEMESIM_PORTFOLIO_BANKROLL.
const EnvPrefix = "MEMESIM"

// ErrUnknownPreset is returned when a preset name is not registered.
var ErrUnknownPreset = errors.New("unknown preset")

// Options controls where configuration is read from.
type Options struct {
	Path      string         // optional YAML/JSON config file
	Preset    string         // overrides the preset named in the file
	Overrides map[string]any // dotted keys, e.g. "run.duration_hours"
}

// Load builds and validates a configuration.
func Load(opts Options) (domain.Config, error) {
	preset, err := resolvePreset(opts)
	if err != nil {
		return domain.Config{}, err
	}
	base, err := Preset(preset)
	if err != nil {
		return domain.Config{}, err
	}

	v, err := newViper(base)
	if err != nil {
		return domain.Config{}, err
	}

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		if err := v.MergeInConfig(); err != nil {
			return domain.Config{}, fmt.Errorf("read config %s: %w", opts.Path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	keys := make([]string, 0, len(opts.Overrides))
	for k := range opts.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v.Set(k, opts.Overrides[k])
	}
	v.Set("preset", preset)

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Preset returns the configuration registered under name.
func Preset(name string) (domain.Config, error) {
	build, ok := domain.Presets[name]
	if !ok {
		return domain.Config{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return build(), nil
}

// PresetNames returns registered preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(domain.Presets))
	for name := range domain.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolvePreset picks the preset: explicit option, then MEMESIM_PRESET,
// then the file's preset key, then default.
func resolvePreset(opts Options) (string, error) {
	if opts.Preset != "" {
		return opts.Preset, nil
	}
	if env := os.Getenv(EnvPrefix + "_PRESET"); env != "" {
		return env, nil
	}
	if opts.Path != "" {
		probe := viper.New()
		probe.SetConfigFile(opts.Path)
		if err := probe.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read config %s: %w", opts.Path, err)
		}
		if p := probe.GetString("preset"); p != "" {
			return p, nil
		}
	}
	return domain.PresetDefault, nil
}

// newViper seeds a viper instance with every key of base so that file values
// and environment variables can override any of them.
func newViper(base domain.Config) (*viper.Viper, error) {
	raw, err := yaml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode preset: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("seed preset defaults: %w", err)
	}
	return v, nil
}

// MarshalYAML renders cfg as YAML.
func MarshalYAML(cfg domain.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// MarshalJSON renders cfg as JSON for run metadata.
func MarshalJSON(cfg domain.Config) ([]byte, error) {
	return json.Marshal(cfg)
}

// FromJSON restores a configuration stored with a run and validates it.
func FromJSON(data []byte) (domain.Config, error) {
	var cfg domain.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode stored config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}
