package testsupport

import (
	"path/filepath"
	"testing"

	"rokuctl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose registry and log file live in a unique
// temp directory per test. Timeouts are shortened so failure paths stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Registry.Path = filepath.Join(base, "roku.toml")
	cfgVal.Discovery.TimeoutSeconds = 1
	cfgVal.Discovery.ResolveNames = false
	cfgVal.ECP.TimeoutSeconds = 1
	cfgVal.ECP.RetryDelayMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMulticastAddress points discovery at a loopback responder.
func WithMulticastAddress(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.MulticastAddress = addr
	}
}

// WithNameResolution toggles device-info lookups during discovery.
func WithNameResolution(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.ResolveNames = enabled
	}
}

// WithLogFile enables the file log sink inside the temp directory.
func WithLogFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.File = filepath.Join(b.baseDir, "logs", "rokuctl.log")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Registry.Path)
}
