// Package config provides the configuration schema and loader for the
// kanade read-aloud bot.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Voicevox VoicevoxConfig `yaml:"voicevox"`
	Postgres PostgresConfig `yaml:"postgres"`
	Server   ServerConfig   `yaml:"server"`
}

// DiscordConfig holds gateway credentials.
type DiscordConfig struct {
	// Token is the bot token. Required. The application ID for slash
	// command registration is taken from the gateway session itself.
	Token string `yaml:"token"`
}

// VoicevoxConfig points at the speech synthesis engine.
type VoicevoxConfig struct {
	// APIBase is the engine's base URL (e.g. "http://localhost:50021").
	APIBase string `yaml:"api_base"`

	// SpeedScale overrides the speaking speed of every synthesis query.
	// Defaults to 1.3.
	SpeedScale float64 `yaml:"speed_scale"`

	// Timeout bounds each engine request. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout"`
}

// PostgresConfig holds the dictionary / preference store connection.
type PostgresConfig struct {
	// DSN is the pgx connection string. Required.
	DSN string `yaml:"dsn"`
}

// ServerConfig holds network, logging, and scheduling settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the metrics/health server listens on
	// (e.g. ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Timezone is the fixed reference timezone for the hourly time
	// signal. Defaults to "Asia/Tokyo".
	Timezone string `yaml:"timezone"`
}
