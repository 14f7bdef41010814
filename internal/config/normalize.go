package config

import (
	"fmt"
	"net"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeRegistry(); err != nil {
		return err
	}
	if err := c.normalizeDiscovery(); err != nil {
		return err
	}
	c.normalizeECP()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeRegistry() error {
	if value, ok := os.LookupEnv(registryPathEnv); ok && strings.TrimSpace(value) != "" {
		c.Registry.Path = value
	}
	c.Registry.Path = strings.TrimSpace(c.Registry.Path)
	if c.Registry.Path == "" {
		c.Registry.Path = defaultRegistryPath
	}
	var err error
	if c.Registry.Path, err = expandPath(c.Registry.Path); err != nil {
		return fmt.Errorf("registry.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() error {
	c.Discovery.SearchTarget = strings.TrimSpace(c.Discovery.SearchTarget)
	if c.Discovery.SearchTarget == "" {
		c.Discovery.SearchTarget = defaultSearchTarget
	}
	c.Discovery.MulticastAddress = strings.TrimSpace(c.Discovery.MulticastAddress)
	if c.Discovery.MulticastAddress == "" {
		c.Discovery.MulticastAddress = defaultMulticastAddress
	}
	if _, _, err := net.SplitHostPort(c.Discovery.MulticastAddress); err != nil {
		return fmt.Errorf("discovery.multicast_address: %w", err)
	}
	c.Discovery.Interface = strings.TrimSpace(c.Discovery.Interface)
	if c.Discovery.TTL <= 0 {
		c.Discovery.TTL = defaultMulticastTTL
	}
	return nil
}

func (c *Config) normalizeECP() {
	if c.ECP.DefaultPort <= 0 {
		c.ECP.DefaultPort = defaultECPPort
	}
}

func (c *Config) normalizeLogging() error {
	if value, ok := os.LookupEnv(logLevelEnv); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.File = strings.TrimSpace(c.Logging.File); c.Logging.File != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
