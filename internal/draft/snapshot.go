package draft

import (
	"sync"

	"github.com/orderdraft/orderdraft/internal/gateway"
)

// Snapshot is the last-known-persisted state used for dirty comparison. It
// is an immutable value: the store replaces it wholesale and never mutates
// it in place. Collection baselines are tri-state — absent is not the same
// as empty, because they arrive via a separate call that may lag or fail.
type Snapshot struct {
	adopted bool

	scalars Scalars

	hasCosts     bool
	hasShipments bool
	hasReturns   bool
	costs        []CostItem
	shipments    []Shipment
	returns      []ReturnItem
}

// Adopted reports whether a scalar baseline has ever been taken.
func (s Snapshot) Adopted() bool {
	return s.adopted
}

// BaselineScalars returns the normalized scalar baseline.
func (s Snapshot) BaselineScalars() Scalars {
	return s.scalars
}

// BaselineCostItems returns the cost-item baseline and whether one exists.
func (s Snapshot) BaselineCostItems() ([]CostItem, bool) {
	if !s.hasCosts {
		return nil, false
	}
	return append([]CostItem(nil), s.costs...), true
}

// BaselineShipments returns the shipment baseline and whether one exists.
func (s Snapshot) BaselineShipments() ([]Shipment, bool) {
	if !s.hasShipments {
		return nil, false
	}
	return cloneShipments(s.shipments), true
}

// BaselineReturns returns the return baseline and whether one exists.
func (s Snapshot) BaselineReturns() ([]ReturnItem, bool) {
	if !s.hasReturns {
		return nil, false
	}
	return cloneReturns(s.returns), true
}

// Store owns the baseline snapshot. It is the only writer; readers get a
// value copy. The mutex exists because saves complete off the UI goroutine
// in tests and the demo binary, not because the UI is concurrent.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewStore returns an empty store. Before the first Adopt, dirty detection
// reports clean by design: an editing session must not look dirty before the
// first load completes.
func NewStore() *Store {
	return &Store{}
}

// Adopt normalizes every scalar of a fetched or just-saved record and makes
// it the baseline. Idempotent: adopting the same record twice yields the
// same baseline. Collection baselines held from a previous adoption are
// kept; they are replaced only through AdoptCollections.
func (st *Store) Adopt(raw gateway.RawRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snap.adopted = true
	st.snap.scalars = ScalarsFromRaw(raw)
}

// AdoptCollections stores deep, order-preserved copies of the three
// collection baselines, decoupled from the live slices. Option and labor
// cost items arrive separately (the service fetches them with distinct
// calls) and are kept as one tagged collection.
func (st *Store) AdoptCollections(option, labor []CostItem, shipments []Shipment, returns []ReturnItem) {
	st.mu.Lock()
	defer st.mu.Unlock()
	merged := make([]CostItem, 0, len(option)+len(labor))
	merged = append(merged, option...)
	merged = append(merged, labor...)
	st.snap.hasCosts = true
	st.snap.costs = merged
	st.snap.hasShipments = true
	st.snap.shipments = cloneShipments(shipments)
	st.snap.hasReturns = true
	st.snap.returns = cloneReturns(returns)
}

// Snapshot returns the current baseline as an immutable value.
func (st *Store) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}
