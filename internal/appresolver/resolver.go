// Package appresolver turns a user-typed application name into an installed
// application from the registry.
package appresolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"rokuctl/internal/ecp"
	"rokuctl/internal/logging"
	"rokuctl/internal/registry"
)

// ErrNotFound means no installed application matched the query.
var ErrNotFound = errors.New("application not found")

// AmbiguousError lists the applications a query matched equally well.
type AmbiguousError struct {
	Query      string
	Candidates []ecp.Application
}

func (e *AmbiguousError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, app := range e.Candidates {
		names = append(names, fmt.Sprintf("%s (%s)", app.Name, app.ID))
	}
	return fmt.Sprintf("%q matches %d applications: %s", e.Query, len(e.Candidates), strings.Join(names, ", "))
}

// Refresher reloads the cached application list from the device.
// *registry.Registry implements it.
type Refresher interface {
	RefreshApps(ctx context.Context, store *registry.Store) ([]ecp.Application, error)
}

// Resolver matches names against a registry store.
type Resolver struct {
	store     *registry.Store
	refresher Refresher
	folder    cases.Caser
	logger    *slog.Logger
}

// New returns a Resolver over store. refresher may be nil, in which case an
// empty cache simply yields ErrNotFound.
func New(store *registry.Store, refresher Refresher, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:     store,
		refresher: refresher,
		folder:    cases.Fold(),
		logger:    logging.NewComponentLogger(logger, "appresolver"),
	}
}

// Resolve finds the application query refers to. An installed ID wins
// outright, then a single case-insensitive exact name match, then a single
// substring match.
// Several matches at the deciding stage produce *AmbiguousError. The cached
// list is refreshed from the device once when it is empty.
func (r *Resolver) Resolve(ctx context.Context, query string) (ecp.Application, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ecp.Application{}, fmt.Errorf("%w: empty application name", ErrNotFound)
	}
	if r.store == nil {
		return ecp.Application{}, fmt.Errorf("resolve %q: no registry loaded", query)
	}

	if len(r.store.Apps) == 0 && r.refresher != nil {
		logging.WithContext(ctx, r.logger).Info("application cache empty, refreshing from device")
		if _, err := r.refresher.RefreshApps(ctx, r.store); err != nil {
			return ecp.Application{}, err
		}
	}

	if app, ok := r.store.AppByID(query); ok {
		return app, nil
	}

	apps := r.store.Apps
	needle := r.fold(query)

	var exact []ecp.Application
	for _, app := range apps {
		if r.fold(app.Name) == needle {
			exact = append(exact, app)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	var partial []ecp.Application
	for _, app := range apps {
		if strings.Contains(r.fold(app.Name), needle) {
			partial = append(partial, app)
		}
	}
	switch len(partial) {
	case 0:
		if len(exact) > 1 {
			return ecp.Application{}, &AmbiguousError{Query: query, Candidates: exact}
		}
		return ecp.Application{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	case 1:
		return partial[0], nil
	default:
		return ecp.Application{}, &AmbiguousError{Query: query, Candidates: partial}
	}
}

func (r *Resolver) fold(s string) string {
	return r.folder.String(strings.TrimSpace(s))
}
