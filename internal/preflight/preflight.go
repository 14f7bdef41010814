package preflight

import (
	"context"
	"path/filepath"

	"rokuctl/internal/config"
	"rokuctl/internal/ecp"
	"rokuctl/internal/registry"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the registry and device checks for cfg. The device check
// is skipped when no registry could be loaded.
func RunAll(ctx context.Context, cfg *config.Config, executor ecp.Executor) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Registry directory", filepath.Dir(cfg.Registry.Path)),
	}

	reg := registry.New(cfg.Registry.Path, registry.WithDefaultPort(cfg.ECP.DefaultPort))
	store, result := CheckRegistry(reg)
	results = append(results, result)
	if store == nil {
		return results
	}

	return append(results, CheckDevice(ctx, executor, store.Device))
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
