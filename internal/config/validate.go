package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateECP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRegistry() error {
	if c.Registry.LockTimeoutSeconds <= 0 || c.Registry.LockTimeoutSeconds > maxRegistryLockSeconds {
		return fmt.Errorf("registry.lock_timeout_seconds must be between 1 and %d", maxRegistryLockSeconds)
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.TimeoutSeconds <= 0 || c.Discovery.TimeoutSeconds > maxDiscoveryTimeoutSeconds {
		return fmt.Errorf("discovery.timeout_seconds must be between 1 and %d", maxDiscoveryTimeoutSeconds)
	}
	if c.Discovery.TTL > 255 {
		return errors.New("discovery.ttl must be at most 255")
	}
	return nil
}

func (c *Config) validateECP() error {
	if c.ECP.TimeoutSeconds <= 0 || c.ECP.TimeoutSeconds > maxECPTimeoutSeconds {
		return fmt.Errorf("ecp.timeout_seconds must be between 1 and %d", maxECPTimeoutSeconds)
	}
	if c.ECP.RetryDelayMillis < 0 || c.ECP.RetryDelayMillis > maxECPRetryDelayMillis {
		return fmt.Errorf("ecp.retry_delay_millis must be between 0 and %d", maxECPRetryDelayMillis)
	}
	if c.ECP.DefaultPort > 65535 {
		return errors.New("ecp.default_port must be a valid TCP port")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
