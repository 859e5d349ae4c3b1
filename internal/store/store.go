// Package store defines the persistence contract the marker state is built
// on. Two implementations exist: a device-local key-value slot (package
// local) and a remote document database (package remote). The active one is
// chosen once at startup.
package store

import (
	"context"
	"errors"

	"github.com/five82/myway/internal/marker"
)

// Store errors.
var (
	ErrNotFound  = errors.New("marker not found")
	ErrInvalidID = errors.New("invalid marker id")
)

// Adapter persists markers keyed by a store-assigned identifier.
type Adapter interface {
	// List returns every persisted marker with its id.
	List(ctx context.Context) ([]marker.Marker, error)

	// Create persists a new marker and returns the id assigned to it.
	Create(ctx context.Context, fields marker.Fields) (string, error)

	// Update replaces the record stored under id.
	Update(ctx context.Context, id string, fields marker.Fields) error

	// Delete removes the record stored under id.
	Delete(ctx context.Context, id string) error
}
