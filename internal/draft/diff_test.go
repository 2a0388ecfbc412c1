package draft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// loadedSession seeds an order plus a fully adopted baseline, mimicking a
// completed screen load.
func loadedSession(t *testing.T) (*Order, *Store) {
	t.Helper()
	raw := rawFixture()
	o := FromRaw(raw)
	o.CostItems = []CostItem{
		{ID: PersistedID(1), Kind: CostKindOption, Name: "zipper", UnitPrice: 300, Quantity: 2},
		{ID: PersistedID(2), Kind: CostKindLabor, Name: "sewing", UnitPrice: 1200, Quantity: 10},
	}
	o.Shipments = []Shipment{
		{ID: PersistedID(5), Date: "2024-04-01", Quantity: 50, Courier: "cj", TrackingNo: "T1"},
	}
	o.Returns = []ReturnItem{
		{ID: PersistedID(7), Date: "2024-04-02", Quantity: 1, Reason: "defect"},
	}

	st := NewStore()
	st.Adopt(raw)
	st.AdoptCollections(o.ItemsOf(CostKindOption), o.ItemsOf(CostKindLabor), o.Shipments, o.Returns)
	return o, st
}

func TestCleanBeforeFirstAdopt(t *testing.T) {
	o := &Order{}
	o.Quantity = 99
	require.False(t, Dirty(o, NewStore().Snapshot()),
		"a session must not look dirty before the first load completes")
}

func TestCleanAfterAdopt(t *testing.T) {
	o, st := loadedSession(t)
	require.False(t, Dirty(o, st.Snapshot()))
}

func TestScalarChangeMarksDirty(t *testing.T) {
	o, st := loadedSession(t)

	o.Quantity = 12
	require.True(t, Dirty(o, st.Snapshot()))

	o.Quantity = 10
	require.False(t, Dirty(o, st.Snapshot()))
}

func TestDateFormattingNoiseIsNotDirty(t *testing.T) {
	o, st := loadedSession(t)

	// The same calendar day in a different wire shape must not count.
	o.OrderDate = "2024-03-05T00:00:00Z"
	require.False(t, Dirty(o, st.Snapshot()))
}

func TestCollectionOrderInsensitive(t *testing.T) {
	o, st := loadedSession(t)

	o.CostItems[0], o.CostItems[1] = o.CostItems[1], o.CostItems[0]
	require.False(t, Dirty(o, st.Snapshot()), "a permutation of the same items is not a change")
}

func TestCostItemBusinessFieldChangeMarksDirty(t *testing.T) {
	o, st := loadedSession(t)

	o.CostItems[0].UnitPrice = 350
	require.True(t, Dirty(o, st.Snapshot()))
}

func TestAddedAndRemovedItemsMarkDirty(t *testing.T) {
	o, st := loadedSession(t)

	added := o.AddCostItem(CostKindOption, "button", 50, 100, false)
	require.True(t, Dirty(o, st.Snapshot()))

	o.RemoveCostItem(added.ID)
	require.False(t, Dirty(o, st.Snapshot()))

	o.RemoveShipment(PersistedID(5))
	require.True(t, Dirty(o, st.Snapshot()))
}

func TestMissingCollectionBaselineIsSkipped(t *testing.T) {
	raw := rawFixture()
	o := FromRaw(raw)
	o.CostItems = []CostItem{{ID: PersistedID(1), Kind: CostKindOption, Name: "zipper", UnitPrice: 300, Quantity: 2}}

	st := NewStore()
	st.Adopt(raw)

	// Collections still loading: only scalar diffs may count.
	require.False(t, Dirty(o, st.Snapshot()))

	o.ProductName = "renamed"
	require.True(t, Dirty(o, st.Snapshot()))
}

func TestPendingImageDominance(t *testing.T) {
	o, st := loadedSession(t)

	require.NoError(t, o.QueueShipmentImage(PersistedID(5), LocalImage{URI: "file:///a.jpg"}))
	require.True(t, Dirty(o, st.Snapshot()),
		"an unsaved local image always counts as an unsaved change")

	o.Shipments[0].PendingImages = nil
	o.Shipments[0].Images = nil
	require.False(t, Dirty(o, st.Snapshot()), "image URL lists are not compared")

	require.NoError(t, o.QueueReturnImage(PersistedID(7), LocalImage{URI: "file:///b.jpg"}))
	require.True(t, Dirty(o, st.Snapshot()))
}

func TestDerivedCostNeverCompared(t *testing.T) {
	o, st := loadedSession(t)

	// Same unit price and quantity in a different order of fields; the
	// derived total is identical by construction and never inspected.
	require.Equal(t, 600.0, o.CostItems[0].Cost())
	require.False(t, Dirty(o, st.Snapshot()))
}
