package config

const (
	defaultRegistryPath        = "~/.config/rokuctl/roku.toml"
	defaultRegistryLockTimeout = 2
	defaultDiscoveryTimeout    = 3
	defaultSearchTarget        = "roku:ecp"
	defaultMulticastAddress    = "239.255.255.250:1900"
	defaultMulticastTTL        = 2
	defaultECPTimeout          = 3
	defaultECPRetryDelayMillis = 250
	defaultECPPort             = 8060
	defaultLogFormat           = "console"
	defaultLogLevel            = "warn"
	maxRegistryLockSeconds     = 60
	maxDiscoveryTimeoutSeconds = 30
	maxECPTimeoutSeconds       = 30
	maxECPRetryDelayMillis     = 5000
	registryPathEnv            = "ROKUCTL_REGISTRY"
	logLevelEnv                = "ROKUCTL_LOG_LEVEL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Registry: Registry{
			Path:               defaultRegistryPath,
			LockTimeoutSeconds: defaultRegistryLockTimeout,
		},
		Discovery: Discovery{
			TimeoutSeconds:   defaultDiscoveryTimeout,
			SearchTarget:     defaultSearchTarget,
			MulticastAddress: defaultMulticastAddress,
			TTL:              defaultMulticastTTL,
			ResolveNames:     true,
		},
		ECP: ECP{
			TimeoutSeconds:   defaultECPTimeout,
			RetryDelayMillis: defaultECPRetryDelayMillis,
			DefaultPort:      defaultECPPort,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
