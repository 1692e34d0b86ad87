// Package storage persists analysis runs so they can be compared later.
package storage

import (
	"context"

	"github.com/papercomputeco/crewlog/pkg/pipeline"
)

// Driver defines the interface for persisting and retrieving analysis runs.
type Driver interface {
	// SaveRun stores a run and all of its blocks. Saving a run id twice
	// replaces the earlier copy.
	SaveRun(ctx context.Context, result *pipeline.Result) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns every stored run, oldest first.
	ListRuns(ctx context.Context) ([]*Run, error)

	// Blocks returns the blocks of a run in detection order.
	Blocks(ctx context.Context, runID string) ([]*Block, error)

	// Close closes the store and releases any resources.
	Close() error
}
