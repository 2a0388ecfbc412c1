// Package editor exposes the editing session the UI layer consumes: the
// live draft, its dirty state, and the save entry point. One session exists
// per opened record and dies with the screen.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orderdraft/orderdraft/internal/draft"
	"github.com/orderdraft/orderdraft/internal/gateway"
	"github.com/orderdraft/orderdraft/internal/save"
)

var (
	// ErrSaveInFlight signals that a save is already running. It is a
	// no-op outcome, not a failure: the caller neither queues nor retries.
	ErrSaveInFlight = errors.New("editor: save already in flight")
	// ErrNotLoaded indicates the session has no record yet.
	ErrNotLoaded = errors.New("editor: no record loaded")
)

// Session binds a draft, its baseline and the save pipeline behind the
// surface the UI needs. Mutators are called from the single UI goroutine;
// the mutex exists so an in-flight save's baseline adoption cannot tear a
// concurrent read.
type Session struct {
	gw       gateway.Gateway
	pipeline *save.Pipeline
	store    *draft.Store
	logger   *slog.Logger
	level    gateway.ActorLevel

	mu          sync.Mutex
	order       *draft.Order
	lastSavedAt *time.Time

	saving atomic.Bool
}

// NewSession constructs a session for an actor privilege level.
func NewSession(gw gateway.Gateway, level gateway.ActorLevel, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		gw:       gw,
		pipeline: save.NewPipeline(gw, logger),
		store:    draft.NewStore(),
		logger:   logger,
		level:    level,
	}
}

// Load fetches the record and seeds draft and baseline together, before any
// mutation can be observed, so the session starts clean.
func (s *Session) Load(ctx context.Context, recordID int64) error {
	raw, err := s.gw.FetchRecord(ctx, recordID)
	if err != nil {
		return fmt.Errorf("editor: load record %d: %w", recordID, err)
	}
	order := draft.FromRaw(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.store.Adopt(raw)
	s.store.AdoptCollections(
		order.ItemsOf(draft.CostKindOption),
		order.ItemsOf(draft.CostKindLabor),
		order.Shipments,
		order.Returns,
	)
	return nil
}

// AdoptBaseline seeds the session from an already-fetched record, for
// loaders that fetch the scalar record and the collections separately. A
// nil collections argument leaves the collection baselines absent, in which
// case only scalar diffs count until they arrive.
func (s *Session) AdoptBaseline(raw gateway.RawRecord, withCollections bool) {
	order := draft.FromRaw(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = order
	s.store.Adopt(raw)
	if withCollections {
		s.store.AdoptCollections(
			order.ItemsOf(draft.CostKindOption),
			order.ItemsOf(draft.CostKindLabor),
			order.Shipments,
			order.Returns,
		)
	}
}

// IsDirty recomputes the dirty state from the live draft and the baseline.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return draft.Dirty(s.order, s.store.Snapshot())
}

// IsSaving reports whether a save is in flight.
func (s *Session) IsSaving() bool {
	return s.saving.Load()
}

// LastSavedAt returns the completion time of the last successful save, nil
// if none has completed in this session.
func (s *Session) LastSavedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSavedAt == nil {
		return nil
	}
	t := *s.lastSavedAt
	return &t
}

// Mutate applies an edit to the live draft under the session lock. All UI
// field bindings and collection operations funnel through here.
func (s *Session) Mutate(fn func(*draft.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return ErrNotLoaded
	}
	fn(s.order)
	return nil
}

// Order returns a deep copy of the live draft for rendering.
func (s *Session) Order() (*draft.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return nil, ErrNotLoaded
	}
	return s.order.Clone(), nil
}

// SaveOptions tunes one save attempt.
type SaveOptions struct {
	// Force runs the pipeline even when the draft is clean.
	Force bool
	// Override saves this payload instead of the live draft. The live
	// draft is still refreshed with the reconciled result.
	Override *draft.Order
}

// Save runs the pipeline against a copy of the draft taken at call time, so
// edits during a slow save cannot corrupt the in-flight request. On success
// the baseline is adopted and the draft's collections are refreshed with
// the reconciled server IDs. A second call while one is in flight returns
// ErrSaveInFlight without queueing.
func (s *Session) Save(ctx context.Context, opts SaveOptions) error {
	if !s.saving.CompareAndSwap(false, true) {
		s.logger.Info("save already in flight, ignoring")
		return ErrSaveInFlight
	}
	defer s.saving.Store(false)

	s.mu.Lock()
	if s.order == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	work := opts.Override
	if work == nil {
		work = s.order
	}
	work = work.Clone()
	snap := s.store.Snapshot()
	s.mu.Unlock()

	if !opts.Force && !draft.Dirty(work, snap) {
		return nil
	}

	res, err := s.pipeline.Run(ctx, save.Input{
		RecordID:   work.ID,
		Order:      work,
		ActorLevel: s.level,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Adopt(res.Record)
	costs := &draft.Order{CostItems: res.CostItems}
	s.store.AdoptCollections(
		costs.ItemsOf(draft.CostKindOption),
		costs.ItemsOf(draft.CostKindLabor),
		res.Shipments,
		res.Returns,
	)
	// Refresh the live collections so temporary IDs disappear and items
	// with failed uploads keep their pending queues. Scalars are left
	// alone: edits made during the save survive and simply read as dirty
	// against the new baseline.
	// The result slices are owned by this save attempt and the store took
	// its own deep copies above, so they can back the draft directly.
	s.order.CostItems = res.CostItems
	s.order.Shipments = res.Shipments
	s.order.Returns = res.Returns
	s.lastSavedAt = &now

	for _, f := range res.ImageFailures {
		s.logger.Warn("attachment upload skipped; record saved",
			slog.String("kind", string(f.Kind)),
			slog.String("item_id", f.RelatedID.String()),
			slog.Any("error", f.Err))
	}
	return nil
}

// Discard resets the draft to the last adopted baseline. Collections reset
// only if a collection baseline exists; otherwise they are left as loaded.
func (s *Session) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return ErrNotLoaded
	}
	snap := s.store.Snapshot()
	if !snap.Adopted() {
		return nil
	}
	s.order.Scalars = snap.BaselineScalars()
	if costs, ok := snap.BaselineCostItems(); ok {
		s.order.CostItems = costs
	}
	if shipments, ok := snap.BaselineShipments(); ok {
		s.order.Shipments = shipments
	}
	if returns, ok := snap.BaselineReturns(); ok {
		s.order.Returns = returns
	}
	return nil
}
