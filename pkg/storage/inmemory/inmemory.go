// Package inmemory provides a map-backed storage driver for tests and for
// runs that do not ask for persistence.
package inmemory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/crewlog/pkg/pipeline"
	"github.com/papercomputeco/crewlog/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards runs, blocks and order
	mu sync.RWMutex

	runs   map[string]*storage.Run
	blocks map[string][]*storage.Block

	// order holds run ids in save order
	order []string

	// now is the clock used for CreatedAt
	now func() time.Time
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		runs:   make(map[string]*storage.Run),
		blocks: make(map[string][]*storage.Block),
		now:    time.Now,
	}
}

// SaveRun stores a run, replacing any run with the same id.
func (s *Driver) SaveRun(_ context.Context, result *pipeline.Result) error {
	if result == nil {
		return errors.New("cannot store nil run")
	}

	run, blocks := storage.Records(result, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run
	s.blocks[run.ID] = blocks
	return nil
}

// GetRun retrieves a run by id.
func (s *Driver) GetRun(_ context.Context, runID string) (*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, storage.NotFoundError{RunID: runID}
	}
	return run, nil
}

// ListRuns returns every run in save order.
func (s *Driver) ListRuns(_ context.Context) ([]*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*storage.Run, 0, len(s.order))
	for _, id := range s.order {
		runs = append(runs, s.runs[id])
	}
	return runs, nil
}

// Blocks returns the blocks of a run.
func (s *Driver) Blocks(_ context.Context, runID string) ([]*storage.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks, ok := s.blocks[runID]
	if !ok {
		return nil, storage.NotFoundError{RunID: runID}
	}
	return slices.Clone(blocks), nil
}

// Close is a no-op for the in-memory driver.
func (s *Driver) Close() error {
	return nil
}
