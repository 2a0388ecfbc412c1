package draft

import (
	"sort"

	"github.com/orderdraft/orderdraft/internal/normalize"
)

// Dirty reports whether the live order differs from the baseline snapshot.
// It is a pure derived value, recomputed on demand; nothing caches it, so it
// can never drift from the data.
//
// Rules:
//   - no baseline ever adopted: clean, regardless of the order's contents;
//   - scalars compare normalized, field by field;
//   - each collection compares order-insensitively (sorted by ID) on
//     business fields only — derived costs and image URL lists never
//     participate;
//   - a collection whose baseline has not arrived yet is skipped, so a
//     late-loading baseline cannot produce a false positive;
//   - any pending image anywhere marks the order dirty outright.
func Dirty(o *Order, snap Snapshot) bool {
	if o == nil || !snap.Adopted() {
		return false
	}
	if o.Scalars.Normalized() != snap.scalars {
		return true
	}
	if snap.hasCosts && costItemsDiffer(o.CostItems, snap.costs) {
		return true
	}
	if snap.hasShipments && shipmentsDiffer(o.Shipments, snap.shipments) {
		return true
	}
	if snap.hasReturns && returnsDiffer(o.Returns, snap.returns) {
		return true
	}
	for _, s := range o.Shipments {
		if s.Unsynced() {
			return true
		}
	}
	for _, r := range o.Returns {
		if r.Unsynced() {
			return true
		}
	}
	return false
}

func sortedByID[T any](items []T, idOf func(T) ID) []T {
	out := append([]T(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		return idOf(out[i]).String() < idOf(out[j]).String()
	})
	return out
}

func costItemsDiffer(live, base []CostItem) bool {
	if len(live) != len(base) {
		return true
	}
	a := sortedByID(live, func(c CostItem) ID { return c.ID })
	b := sortedByID(base, func(c CostItem) ID { return c.ID })
	for i := range a {
		if a[i].ID != b[i].ID ||
			a[i].Kind != b[i].Kind ||
			a[i].Name != b[i].Name ||
			normalize.NumberValue(a[i].UnitPrice) != normalize.NumberValue(b[i].UnitPrice) ||
			normalize.NumberValue(a[i].Quantity) != normalize.NumberValue(b[i].Quantity) ||
			a[i].AdminOnly != b[i].AdminOnly {
			return true
		}
	}
	return false
}

func shipmentsDiffer(live, base []Shipment) bool {
	if len(live) != len(base) {
		return true
	}
	a := sortedByID(live, func(s Shipment) ID { return s.ID })
	b := sortedByID(base, func(s Shipment) ID { return s.ID })
	for i := range a {
		if a[i].ID != b[i].ID ||
			normalize.Date(a[i].Date) != normalize.Date(b[i].Date) ||
			normalize.NumberValue(a[i].Quantity) != normalize.NumberValue(b[i].Quantity) ||
			a[i].Courier != b[i].Courier ||
			a[i].TrackingNo != b[i].TrackingNo ||
			a[i].Note != b[i].Note {
			return true
		}
	}
	return false
}

func returnsDiffer(live, base []ReturnItem) bool {
	if len(live) != len(base) {
		return true
	}
	a := sortedByID(live, func(r ReturnItem) ID { return r.ID })
	b := sortedByID(base, func(r ReturnItem) ID { return r.ID })
	for i := range a {
		if a[i].ID != b[i].ID ||
			normalize.Date(a[i].Date) != normalize.Date(b[i].Date) ||
			normalize.NumberValue(a[i].Quantity) != normalize.NumberValue(b[i].Quantity) ||
			a[i].Reason != b[i].Reason ||
			a[i].Note != b[i].Note {
			return true
		}
	}
	return false
}
