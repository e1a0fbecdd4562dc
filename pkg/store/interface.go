// Package store keeps the history of probe runs.
package store

import (
	"context"
	"errors"

	"github.com/rzbill/labnet/pkg/types"
)

var (
	// ErrNotFound is returned when no run has the requested id.
	ErrNotFound = errors.New("probe run not found")

	// ErrAlreadyExists is returned when saving a run id twice.
	ErrAlreadyExists = errors.New("probe run already exists")
)

// Store defines the interface for probe run history storage.
type Store interface {
	// Open initializes and opens the store.
	Open(path string) error

	// Close closes the store and releases resources.
	Close() error

	// SaveRun records a finished run. Run ids are unique.
	SaveRun(ctx context.Context, run *types.ProbeRun) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, id string) (*types.ProbeRun, error)

	// ListRuns returns every run, oldest first.
	ListRuns(ctx context.Context) ([]*types.ProbeRun, error)

	// DeleteRun removes a run.
	DeleteRun(ctx context.Context, id string) error
}
