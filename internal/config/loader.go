package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Validate] when fields are left empty.
const (
	DefaultAPIBase    = "http://localhost:50021"
	DefaultSpeedScale = 1.3
	DefaultTimeout    = 30 * time.Second
	DefaultTimezone   = "Asia/Tokyo"
	DefaultListenAddr = ":8080"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills in defaults and checks that cfg contains a coherent set of
// values. It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token is required"))
	}

	if cfg.Voicevox.APIBase == "" {
		cfg.Voicevox.APIBase = DefaultAPIBase
	}
	if cfg.Voicevox.SpeedScale == 0 {
		cfg.Voicevox.SpeedScale = DefaultSpeedScale
	}
	if cfg.Voicevox.SpeedScale < 0.5 || cfg.Voicevox.SpeedScale > 2.0 {
		errs = append(errs, fmt.Errorf("voicevox.speed_scale %.2f is out of range [0.5, 2.0]", cfg.Voicevox.SpeedScale))
	}
	if cfg.Voicevox.Timeout == 0 {
		cfg.Voicevox.Timeout = DefaultTimeout
	}
	if cfg.Voicevox.Timeout < 0 {
		errs = append(errs, fmt.Errorf("voicevox.timeout %v is negative", cfg.Voicevox.Timeout))
	}

	if cfg.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = DefaultTimezone
	}
	if _, err := time.LoadLocation(cfg.Server.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("server.timezone %q is invalid: %w", cfg.Server.Timezone, err))
	}

	return errors.Join(errs...)
}
