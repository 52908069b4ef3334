// Package refresh keeps per-entity record snapshots current. Queries
// read immutable snapshots; fetching happens here, on a ticker or on
// first use, never inside the list pipeline.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crm-pipeline/internal/metrics"
	"crm-pipeline/internal/model"
	"crm-pipeline/internal/source"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the last successfully fetched record set of an entity.
type Snapshot struct {
	Records   []model.Record
	UpdatedAt time.Time
	LastError string
}

// invalidator is implemented by caching providers.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Scheduler owns the snapshots.
type Scheduler struct {
	registry *source.Registry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time

	// Concurrency caps parallel fetches in RefreshAll.
	Concurrency int

	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// New creates a scheduler. m may be nil.
func New(registry *source.Registry, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		registry:    registry,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
		Concurrency: 4,
		snapshots:   make(map[string]Snapshot),
	}
}

// Refresh fetches one entity. On failure the previous snapshot is kept
// and the error recorded on it.
func (s *Scheduler) Refresh(ctx context.Context, entity string) error {
	provider, err := s.registry.Get(entity)
	if err != nil {
		return err
	}

	start := s.now()
	records, err := provider.Records(ctx)
	took := s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.ObserveRefresh(entity, len(records), took, start, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// an entity never loaded stays absent so the next read retries
		if snap, ok := s.snapshots[entity]; ok {
			snap.LastError = err.Error()
			s.snapshots[entity] = snap
		}
		return fmt.Errorf("refresh %s: %w", entity, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	s.snapshots[entity] = Snapshot{Records: records, UpdatedAt: start}
	s.logger.Debug().Str("entity", entity).Int("records", len(records)).Dur("took", took).Msg("snapshot refreshed")
	return nil
}

// RefreshAll refreshes every registered entity in parallel. One failing
// entity does not stop the others; all errors are joined.
func (s *Scheduler) RefreshAll(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for _, entity := range s.registry.Entities() {
		entity := entity
		g.Go(func() error {
			if err := s.Refresh(gctx, entity); err != nil {
				s.logger.Warn().Err(err).Str("entity", entity).Msg("refresh failed, keeping previous snapshot")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Run refreshes everything now and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	_ = s.RefreshAll(ctx)
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = s.RefreshAll(ctx)
		}
	}
}

// Records returns the entity's snapshot, fetching it on first use.
func (s *Scheduler) Records(ctx context.Context, entity string) ([]model.Record, error) {
	if snap, ok := s.Snapshot(entity); ok {
		return snap.Records, nil
	}
	if err := s.Refresh(ctx, entity); err != nil {
		return nil, err
	}
	snap, _ := s.Snapshot(entity)
	return snap.Records, nil
}

// Snapshot returns the current snapshot of an entity.
func (s *Scheduler) Snapshot(entity string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[entity]
	return snap, ok
}

// Invalidate drops the snapshot and any provider cache so the next read
// fetches fresh data.
func (s *Scheduler) Invalidate(ctx context.Context, entity string) error {
	s.mu.Lock()
	delete(s.snapshots, entity)
	s.mu.Unlock()

	provider, err := s.registry.Get(entity)
	if err != nil {
		return err
	}
	if inv, ok := provider.(invalidator); ok {
		return inv.Invalidate(ctx)
	}
	return nil
}
