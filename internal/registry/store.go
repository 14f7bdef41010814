package registry

import (
	"strings"

	"rokuctl/internal/ecp"
)

// Store is the persisted registry: the active device and its installed
// applications in the order the device reported them.
type Store struct {
	Device ecp.Device        `toml:"device"`
	Apps   []ecp.Application `toml:"apps,omitempty"`
}

// AppByID returns the application with the given identifier.
func (s *Store) AppByID(id string) (ecp.Application, bool) {
	if s == nil {
		return ecp.Application{}, false
	}
	id = strings.TrimSpace(id)
	for _, app := range s.Apps {
		if app.ID == id {
			return app, true
		}
	}
	return ecp.Application{}, false
}

// Clone returns a deep copy so callers can stage changes before saving.
func (s *Store) Clone() *Store {
	if s == nil {
		return nil
	}
	clone := &Store{Device: s.Device}
	if s.Apps != nil {
		clone.Apps = append([]ecp.Application(nil), s.Apps...)
	}
	return clone
}
