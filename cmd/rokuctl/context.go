package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rokuctl/internal/appresolver"
	"rokuctl/internal/config"
	"rokuctl/internal/discovery"
	"rokuctl/internal/ecp"
	"rokuctl/internal/logging"
	"rokuctl/internal/registry"
	"rokuctl/internal/services"
)

type commandContext struct {
	configFlag   *string
	registryFlag *string
	logLevelFlag *string
	verboseFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, registryFlag, logLevelFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		registryFlag: registryFlag,
		logLevelFlag: logLevelFlag,
		verboseFlag:  verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyFlags(cfg); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// applyFlags layers command-line overrides on top of the loaded file.
func (c *commandContext) applyFlags(cfg *config.Config) error {
	if path := flagValue(c.registryFlag); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return fmt.Errorf("resolve --registry: %w", err)
		}
		cfg.Registry.Path = expanded
	}
	if level := flagValue(c.logLevelFlag); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if c.verboseFlag != nil && *c.verboseFlag {
		cfg.Logging.Level = "debug"
	}
	return cfg.Validate()
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// session bundles everything a device command needs for one invocation.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *ecp.Client
	registry *registry.Registry
}

// newSession stamps cmd's context with a correlation id and builds the ECP
// client and registry from configuration. Commands read the stamped context
// back through cmd.Context().
func (c *commandContext) newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithCommand(ctx, cmd.Name())
	cmd.SetContext(ctx)

	client := ecp.NewClient(
		ecp.WithTimeout(cfg.ECPTimeout()),
		ecp.WithRetryDelay(cfg.ECPRetryDelay()),
		ecp.WithLogger(logger),
	)
	reg := registry.New(cfg.Registry.Path,
		registry.WithExecutor(client),
		registry.WithDefaultPort(cfg.ECP.DefaultPort),
		registry.WithLockTimeout(cfg.RegistryLockTimeout()),
		registry.WithLogger(logger),
	)
	logging.WithContext(ctx, logger).Debug("command started", logging.String("registry", cfg.Registry.Path))
	return &session{cfg: cfg, logger: logger, client: client, registry: reg}, nil
}

func (s *session) loadStore() (*registry.Store, error) {
	return s.registry.Load()
}

func (s *session) resolver(store *registry.Store) *appresolver.Resolver {
	return appresolver.New(store, s.registry, s.logger)
}

func (s *session) discoveryAgent() *discovery.Agent {
	return discovery.NewAgentFromConfig(s.cfg, s.client, s.logger)
}

// send encodes cmd and executes it against device.
func (s *session) send(ctx context.Context, cmd ecp.Command, device ecp.Device) (*ecp.Response, error) {
	req, err := ecp.Encode(cmd)
	if err != nil {
		return nil, err
	}
	return s.client.Execute(ctx, req, device)
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
