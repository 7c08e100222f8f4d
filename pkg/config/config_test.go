package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Verify.Retries != DefaultVerifyRetries {
		t.Errorf("expected verify retries %d, got %d", DefaultVerifyRetries, cfg.Verify.Retries)
	}
	if cfg.Verify.Interval != DefaultVerifyInterval {
		t.Errorf("expected verify interval %s, got %s", DefaultVerifyInterval, cfg.Verify.Interval)
	}
	if cfg.Checkpoint.RollbackTimeout != DefaultRollbackTimeout {
		t.Errorf("expected rollback timeout %s, got %s", DefaultRollbackTimeout, cfg.Checkpoint.RollbackTimeout)
	}
	if cfg.Dispatch.Directory != DefaultDispatchDir {
		t.Errorf("expected dispatch dir %q, got %q", DefaultDispatchDir, cfg.Dispatch.Directory)
	}
	if cfg.OVSDB.SocketPath != DefaultOVSDBSocketPath {
		t.Errorf("expected ovsdb socket %q, got %q", DefaultOVSDBSocketPath, cfg.OVSDB.SocketPath)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
verify:
  interval: 2s
  retries: 3
checkpoint:
  rollbackTimeout: 45s
dispatch:
  directory: /tmp/dispatch.d
ovsdb:
  socketPath: /tmp/ovsdb.sock
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		t.Fatalf("failed to load config file: %v", err)
	}

	if cfg.Verify.Retries != 3 {
		t.Errorf("expected verify retries 3, got %d", cfg.Verify.Retries)
	}
	if cfg.Verify.Interval != 2*time.Second {
		t.Errorf("expected verify interval 2s, got %s", cfg.Verify.Interval)
	}
	if cfg.Checkpoint.RollbackTimeout != 45*time.Second {
		t.Errorf("expected rollback timeout 45s, got %s", cfg.Checkpoint.RollbackTimeout)
	}
	if cfg.Dispatch.Directory != "/tmp/dispatch.d" {
		t.Errorf("expected dispatch dir '/tmp/dispatch.d', got '%s'", cfg.Dispatch.Directory)
	}
	if cfg.OVSDB.SocketPath != "/tmp/ovsdb.sock" {
		t.Errorf("expected ovsdb socket '/tmp/ovsdb.sock', got '%s'", cfg.OVSDB.SocketPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	os.Setenv(DispatchDirEnvVar, "/tmp/nm-dispatch.d")
	os.Setenv(VerifyRetriesEnvVar, "9")
	os.Setenv(VerifyIntervalMsEnvVar, "250")
	os.Setenv(RollbackTimeoutSecEnvVar, "10")
	os.Setenv(OVSDBSocketPathEnvVar, "/tmp/custom-ovsdb.sock")
	os.Setenv("NMSTATE_LOG_LEVEL", "warn")
	defer func() {
		os.Unsetenv(DispatchDirEnvVar)
		os.Unsetenv(VerifyRetriesEnvVar)
		os.Unsetenv(VerifyIntervalMsEnvVar)
		os.Unsetenv(RollbackTimeoutSecEnvVar)
		os.Unsetenv(OVSDBSocketPathEnvVar)
		os.Unsetenv("NMSTATE_LOG_LEVEL")
	}()

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Dispatch.Directory != "/tmp/nm-dispatch.d" {
		t.Errorf("expected dispatch dir '/tmp/nm-dispatch.d', got '%s'", cfg.Dispatch.Directory)
	}
	if cfg.Verify.Retries != 9 {
		t.Errorf("expected verify retries 9, got %d", cfg.Verify.Retries)
	}
	if cfg.Verify.Interval != 250*time.Millisecond {
		t.Errorf("expected verify interval 250ms, got %s", cfg.Verify.Interval)
	}
	if cfg.Checkpoint.RollbackTimeout != 10*time.Second {
		t.Errorf("expected rollback timeout 10s, got %s", cfg.Checkpoint.RollbackTimeout)
	}
	if cfg.OVSDB.SocketPath != "/tmp/custom-ovsdb.sock" {
		t.Errorf("expected ovsdb socket '/tmp/custom-ovsdb.sock', got '%s'", cfg.OVSDB.SocketPath)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got '%s'", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad log level")
	}
}

func TestValidateRejectsZeroRollbackTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Checkpoint.RollbackTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero rollback timeout")
	}
}
