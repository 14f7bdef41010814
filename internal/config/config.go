package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Registry points at the persisted device + application file.
type Registry struct {
	Path string `toml:"path"`
	// LockTimeoutSeconds bounds how long a save waits for another
	// rokuctl process to release the registry lock.
	LockTimeoutSeconds int `toml:"lock_timeout_seconds"`
}

// Discovery contains SSDP search settings.
type Discovery struct {
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	SearchTarget     string `toml:"search_target"`
	MulticastAddress string `toml:"multicast_address"`
	// Interface names the NIC used for outbound multicast. Empty lets the
	// kernel pick the default route.
	Interface    string `toml:"interface"`
	TTL          int    `toml:"ttl"`
	ResolveNames bool   `toml:"resolve_names"`
}

// ECP contains transport settings for External Control Protocol requests.
type ECP struct {
	TimeoutSeconds   int `toml:"timeout_seconds"`
	RetryDelayMillis int `toml:"retry_delay_millis"`
	// DefaultPort is appended to device addresses that were saved without one.
	DefaultPort int `toml:"default_port"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for rokuctl.
//
// Configuration sections by subsystem:
//   - Registry: location of the device + app registry file
//   - Discovery: SSDP search window, target, and multicast socket options
//   - ECP: per-request timeout and retry spacing
//   - Logging: log format, level, and optional file sink
type Config struct {
	Registry  Registry  `toml:"registry"`
	Discovery Discovery `toml:"discovery"`
	ECP       ECP       `toml:"ecp"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rokuctl/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error: defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// DiscoveryTimeout returns the SSDP collection window.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutSeconds) * time.Second
}

// RegistryLockTimeout returns how long a registry save waits for the file lock.
func (c *Config) RegistryLockTimeout() time.Duration {
	return time.Duration(c.Registry.LockTimeoutSeconds) * time.Second
}

// ECPTimeout returns the per-request ECP timeout.
func (c *Config) ECPTimeout() time.Duration {
	return time.Duration(c.ECP.TimeoutSeconds) * time.Second
}

// ECPRetryDelay returns the pause before the single retry of an idempotent command.
func (c *Config) ECPRetryDelay() time.Duration {
	return time.Duration(c.ECP.RetryDelayMillis) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
