// Package config provides configuration management for the nmstate engine.
//
// This package handles:
// - Configuration file parsing (YAML/JSON)
// - Environment variable overrides
// - Configuration validation
//
// Configuration Priority (highest to lowest):
// 1. Environment variables (NMSTATE_*)
// 2. Configuration file
// 3. Default values
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the global configuration structure for the engine.
type Config struct {
	// Verify contains post-apply verification settings.
	Verify VerifyConfig `json:"verify" yaml:"verify"`

	// Checkpoint contains rollback/checkpoint settings.
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`

	// Dispatch contains dispatch-script settings.
	Dispatch DispatchConfig `json:"dispatch" yaml:"dispatch"`

	// OVSDB contains the OVSDB global-config connection settings.
	OVSDB OVSDBConfig `json:"ovsdb" yaml:"ovsdb"`

	// Logging contains logging configuration.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// VerifyConfig controls the apply pipeline's post-apply verification loop
// (spec §4.F step 8).
type VerifyConfig struct {
	// Interval is the backoff between verification retries.
	// Default: 1s
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Retries is the number of verification retries after the first
	// attempt (Retries+1 attempts in all) before giving up.
	// Default: 5
	Retries int `json:"retries" yaml:"retries"`

	// NoVerify skips verification entirely when set.
	NoVerify bool `json:"noVerify" yaml:"noVerify"`
}

// CheckpointConfig controls the backend checkpoint/rollback discipline
// (spec §4.F steps 4, 7, 9).
type CheckpointConfig struct {
	// RollbackTimeout bounds how long the engine waits for a backend
	// rollback to complete before giving up and reporting the original
	// error anyway.
	// Default: 30s
	RollbackTimeout time.Duration `json:"rollbackTimeout" yaml:"rollbackTimeout"`
}

// DispatchConfig controls where dispatch scripts are written (spec §6).
type DispatchConfig struct {
	// Directory is the dispatcher script directory.
	// Default: /etc/NetworkManager/dispatcher.d
	Directory string `json:"directory" yaml:"directory"`
}

// OVSDBConfig controls the connection to the OVSDB global-config socket
// (spec §6 "OVSDB global config path").
type OVSDBConfig struct {
	// SocketPath is the Unix-domain socket path.
	// Default: /run/openvswitch/db.sock
	SocketPath string `json:"socketPath" yaml:"socketPath"`

	// ConnectTimeout bounds the initial connection attempt.
	// Default: 5s
	ConnectTimeout time.Duration `json:"connectTimeout" yaml:"connectTimeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `json:"level" yaml:"level"`

	// Format is the log format: "json" or "text".
	// Default: "json"
	Format string `json:"format" yaml:"format"`

	// File is the log file path (optional). If empty, logs to stdout.
	File string `json:"file" yaml:"file"`
}

// Default verify/checkpoint constants, see spec §4.F.
const (
	DefaultVerifyInterval       = 1 * time.Second
	DefaultVerifyRetries        = 5
	DefaultRollbackTimeout      = 30 * time.Second
	DefaultDispatchDir          = "/etc/NetworkManager/dispatcher.d"
	DefaultOVSDBSocketPath      = "/run/openvswitch/db.sock"
	DefaultOVSDBConnectTimeout  = 5 * time.Second
	DispatchDirEnvVar           = "NMSTATE_NM_DISPATCH_DIR"
	VerifyRetriesEnvVar         = "NMSTATE_VERIFY_RETRY_COUNT"
	VerifyIntervalMsEnvVar      = "NMSTATE_VERIFY_RETRY_INTERVAL_MILLISECONDS"
	RollbackTimeoutSecEnvVar    = "NMSTATE_CHECKPOINT_ROLLBACK_TIMEOUT_SECONDS"
	OVSDBSocketPathEnvVar       = "NMSTATE_OVSDB_SOCKET_PATH"
)

// DefaultConfig returns a Config populated with the engine's defaults.
func DefaultConfig() *Config {
	return &Config{
		Verify: VerifyConfig{
			Interval: DefaultVerifyInterval,
			Retries:  DefaultVerifyRetries,
		},
		Checkpoint: CheckpointConfig{
			RollbackTimeout: DefaultRollbackTimeout,
		},
		Dispatch: DispatchConfig{
			Directory: DefaultDispatchDir,
		},
		OVSDB: OVSDBConfig{
			SocketPath:     DefaultOVSDBSocketPath,
			ConnectTimeout: DefaultOVSDBConnectTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from file (if NMSTATE_CONFIG_FILE is set)
// and then applies environment variable overrides.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if configFile := os.Getenv("NMSTATE_CONFIG_FILE"); configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML or JSON file (YAML is a
// superset of JSON, so a single unmarshal handles both).
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. NMSTATE_NM_DISPATCH_DIR and the two verify-retry
// variables mirror the knobs the original Rust engine exposes.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(DispatchDirEnvVar); v != "" {
		c.Dispatch.Directory = v
	}
	if v := os.Getenv(VerifyRetriesEnvVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Verify.Retries = n
		}
	}
	if v := os.Getenv(VerifyIntervalMsEnvVar); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Verify.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv(RollbackTimeoutSecEnvVar); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s >= 0 {
			c.Checkpoint.RollbackTimeout = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv(OVSDBSocketPathEnvVar); v != "" {
		c.OVSDB.SocketPath = v
	}
	if v := os.Getenv("NMSTATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NMSTATE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Verify.Retries < 0 {
		errs = append(errs, fmt.Sprintf("invalid verify.retries: %d (must be >= 0)", c.Verify.Retries))
	}
	if c.Verify.Interval < 0 {
		errs = append(errs, "invalid verify.interval: must be >= 0")
	}
	if c.Checkpoint.RollbackTimeout <= 0 {
		errs = append(errs, "invalid checkpoint.rollbackTimeout: must be > 0")
	}
	if c.Dispatch.Directory == "" {
		errs = append(errs, "dispatch.directory must not be empty")
	}
	if c.OVSDB.SocketPath == "" {
		errs = append(errs, "ovsdb.socketPath must not be empty")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be 'json' or 'text')", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
