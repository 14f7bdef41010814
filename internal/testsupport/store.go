package testsupport

import (
	"testing"

	"rokuctl/internal/config"
	"rokuctl/internal/ecp"
	"rokuctl/internal/registry"
)

// MustSaveRegistry writes a registry for device and apps at the configured
// path and returns the saved store.
func MustSaveRegistry(t testing.TB, cfg *config.Config, device ecp.Device, apps []ecp.Application) *registry.Store {
	t.Helper()

	store := &registry.Store{Device: device, Apps: apps}
	if err := registry.New(cfg.Registry.Path).Save(store); err != nil {
		t.Fatalf("registry.Save: %v", err)
	}
	return store
}

// MustLoadRegistry loads the configured registry or fails the test.
func MustLoadRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.New(cfg.Registry.Path).Load()
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	return store
}
