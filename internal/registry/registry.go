// Package registry persists the active Roku device and its installed
// applications in a single TOML file.
//
// Every save rewrites the whole file through a temp file and rename, under an
// advisory lock, so a crash or a concurrent invocation never leaves a torn
// registry behind.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"rokuctl/internal/ecp"
	"rokuctl/internal/fileutil"
	"rokuctl/internal/logging"
)

var (
	// ErrNotFound means no registry exists yet; run discovery first.
	ErrNotFound = errors.New("registry not found")
	// ErrCorrupt means the registry exists but cannot be used as-is.
	ErrCorrupt = errors.New("registry corrupt")
	// ErrIOFailure covers every other read or write failure.
	ErrIOFailure = errors.New("registry i/o failure")
)

const (
	defaultLockTimeout = 2 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
	fileMode           = 0o644
)

// Registry reads and writes one registry file.
type Registry struct {
	path        string
	defaultPort int
	lockTimeout time.Duration
	executor    ecp.Executor
	logger      *slog.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithExecutor sets the ECP executor used by RefreshApps.
func WithExecutor(executor ecp.Executor) Option {
	return func(r *Registry) {
		r.executor = executor
	}
}

// WithDefaultPort sets the port appended to saved addresses lacking one.
func WithDefaultPort(port int) Option {
	return func(r *Registry) {
		if port > 0 {
			r.defaultPort = port
		}
	}
}

// WithLockTimeout bounds how long Save waits for another writer.
func WithLockTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		if timeout > 0 {
			r.lockTimeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New returns a Registry backed by path.
func New(path string, opts ...Option) *Registry {
	reg := &Registry{
		path:        path,
		defaultPort: ecp.DefaultPort,
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(reg)
	}
	reg.logger = logging.NewComponentLogger(reg.logger, "registry")
	return reg
}

// Path returns the registry file location.
func (r *Registry) Path() string {
	return r.path
}

// Load reads the registry. It never repairs a damaged file.
func (r *Registry) Load() (*Store, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, r.path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrIOFailure, r.path, err)
	}

	var store Store
	decoder := toml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&store); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrCorrupt, r.path, err)
	}
	if strings.TrimSpace(store.Device.Addr) == "" {
		return nil, fmt.Errorf("%w: %s: [device] table has no addr", ErrCorrupt, r.path)
	}
	addr, err := ecp.NormalizeAddr(store.Device.Addr, r.defaultPort)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, r.path, err)
	}
	store.Device.Addr = addr
	store.Device.Name = strings.TrimSpace(store.Device.Name)
	if len(store.Apps) == 0 {
		store.Apps = nil
	}
	return &store, nil
}

// Save replaces the registry file with store.
func (r *Registry) Save(store *Store) error {
	if store == nil {
		return fmt.Errorf("save registry: nil store")
	}
	if strings.TrimSpace(store.Device.Addr) == "" {
		return fmt.Errorf("save registry: device has no address")
	}

	dir := filepath.Dir(r.path)
	if err := fileutil.CheckWritableDir(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	data, err := toml.Marshal(store)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	lock := flock.New(r.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), r.lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		if err == nil {
			err = errors.New("lock held by another process")
		}
		return fmt.Errorf("%w: lock %s: %w", ErrIOFailure, r.path, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release registry lock", logging.Error(err))
		}
	}()

	if err := fileutil.WriteFileAtomic(r.path, data, fileMode); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIOFailure, r.path, err)
	}
	r.logger.Debug("registry saved",
		logging.String("path", r.path),
		logging.String(logging.FieldDevice, store.Device.Addr),
		logging.Int("apps", len(store.Apps)),
	)
	return nil
}

// RefreshApps fetches /query/apps from the store's device, replaces the
// cached list, and saves. On any failure the file and store are left as
// they were; transport errors are returned unmodified.
func (r *Registry) RefreshApps(ctx context.Context, store *Store) ([]ecp.Application, error) {
	if store == nil {
		return nil, fmt.Errorf("refresh apps: nil store")
	}
	if r.executor == nil {
		return nil, fmt.Errorf("refresh apps: no ecp executor configured")
	}
	req, err := ecp.Encode(ecp.ListApps{})
	if err != nil {
		return nil, err
	}
	resp, err := r.executor.Execute(ctx, req, store.Device)
	if err != nil {
		return nil, err
	}
	apps, err := ecp.ParseApps(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("refresh apps from %s: %w", store.Device, err)
	}

	updated := store.Clone()
	updated.Apps = apps
	if err := r.Save(updated); err != nil {
		return nil, err
	}
	store.Apps = updated.Apps
	logging.WithContext(ctx, r.logger).Info("application list refreshed",
		logging.String(logging.FieldDevice, store.Device.Addr),
		logging.Int("apps", len(apps)),
	)
	return apps, nil
}
