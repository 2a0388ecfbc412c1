package gateway

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Memory is an in-memory Gateway used by tests and the demo binary. It
// mimics the service's observable behavior: wholesale cost-item replace
// (preserving admin-only rows for non-privileged actors), positional ID
// assignment on upserts, and image uploads folded into server URLs on the
// next fetch.
//
// Calls records the operation names in invocation order; FailOn injects an
// error for a named operation.
type Memory struct {
	mu      sync.Mutex
	records map[int64]*memoryRecord
	nextID  int64

	Calls   []string
	FailOn  map[string]error
	Uploads []UploadCall

	// FailUploadFor rejects uploads targeting one related ID, leaving the
	// rest of the pipeline observable.
	FailUploadFor map[int64]error
}

// UploadCall records one image upload for assertions.
type UploadCall struct {
	RecordID  int64
	Kind      ImageKind
	RelatedID int64
	Names     []string
}

type memoryRecord struct {
	raw       RawRecord
	costs     []CostItemPayload
	shipments []memoryShipment
	returns   []memoryReturn
}

type memoryShipment struct {
	id      int64
	payload ShipmentPayload
	images  []string
}

type memoryReturn struct {
	id      int64
	payload ReturnPayload
	images  []string
}

// NewMemory returns an empty fake.
func NewMemory() *Memory {
	return &Memory{
		records:       make(map[int64]*memoryRecord),
		FailOn:        make(map[string]error),
		FailUploadFor: make(map[int64]error),
	}
}

// Seed installs a record, nested collections included, assigning server IDs
// to any cost item or sub-entity that carries a non-numeric ID.
func (m *Memory) Seed(raw RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &memoryRecord{raw: raw}
	for _, c := range raw.CostItems {
		if _, err := strconv.ParseInt(c.ID, 10, 64); err != nil {
			c.ID = strconv.FormatInt(m.assignID(), 10)
		}
		rec.costs = append(rec.costs, CostItemPayload{
			ID:        c.ID,
			Kind:      c.Kind,
			Name:      stringValue(c.Name),
			UnitPrice: floatValue(c.UnitPrice),
			Quantity:  floatValue(c.Quantity),
			AdminOnly: boolValue(c.AdminOnly),
		})
	}
	for _, s := range raw.Shipments {
		id := m.parseOrAssign(s.ID)
		rec.shipments = append(rec.shipments, memoryShipment{
			id: id,
			payload: ShipmentPayload{
				ID:         strconv.FormatInt(id, 10),
				Date:       s.Date,
				Quantity:   floatValue(s.Quantity),
				Courier:    stringValue(s.Courier),
				TrackingNo: stringValue(s.TrackingNo),
				Note:       stringValue(s.Note),
			},
			images: append([]string(nil), s.Images...),
		})
	}
	for _, r := range raw.Returns {
		id := m.parseOrAssign(r.ID)
		rec.returns = append(rec.returns, memoryReturn{
			id: id,
			payload: ReturnPayload{
				ID:       strconv.FormatInt(id, 10),
				Date:     r.Date,
				Quantity: floatValue(r.Quantity),
				Reason:   stringValue(r.Reason),
				Note:     stringValue(r.Note),
			},
			images: append([]string(nil), r.Images...),
		})
	}
	m.records[raw.ID] = rec
}

// FetchRecord implements Gateway.
func (m *Memory) FetchRecord(ctx context.Context, id int64) (RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.observe("fetch"); err != nil {
		return RawRecord{}, err
	}
	rec, ok := m.records[id]
	if !ok {
		return RawRecord{}, &RemoteError{Op: "fetch", Status: 404, Message: fmt.Sprintf("record %d not found", id)}
	}
	return rec.snapshot(), nil
}

// UpdateScalarFields implements Gateway.
func (m *Memory) UpdateScalarFields(ctx context.Context, id int64, patch ScalarPatch) (RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.observe("scalar-update"); err != nil {
		return RawRecord{}, err
	}
	rec, ok := m.records[id]
	if !ok {
		return RawRecord{}, &RemoteError{Op: "scalar-update", Status: 404, Message: fmt.Sprintf("record %d not found", id)}
	}
	rec.raw = RawRecord{
		ID:                    id,
		UnitPrice:             &patch.UnitPrice,
		BackMargin:            &patch.BackMargin,
		Quantity:              &patch.Quantity,
		ShippingCost:          &patch.ShippingCost,
		WarehouseShippingCost: &patch.WarehouseShippingCost,
		CommissionRate:        &patch.CommissionRate,
		CommissionType:        &patch.CommissionType,
		PackagingCount:        &patch.PackagingCount,
		OrderDate:             patch.OrderDate,
		DeliveryDate:          patch.DeliveryDate,
		WorkStartDate:         patch.WorkStartDate,
		WorkEndDate:           patch.WorkEndDate,
		AdvanceRate:           &patch.AdvanceRate,
		AdvanceDate:           patch.AdvanceDate,
		BalanceRate:           &patch.BalanceRate,
		BalanceDate:           patch.BalanceDate,
		OrderConfirmed:        &patch.OrderConfirmed,
		ProductName:           &patch.ProductName,
		ProductSize:           &patch.ProductSize,
		ProductWeight:         &patch.ProductWeight,
		PackagingSize:         &patch.PackagingSize,
	}
	return rec.snapshot(), nil
}

// ReplaceCostItems implements Gateway. For non-privileged actors the
// service keeps its existing admin-only rows, so a client that stripped
// them does not delete them.
func (m *Memory) ReplaceCostItems(ctx context.Context, id int64, items []CostItemPayload, level ActorLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.observe("cost-items-replace"); err != nil {
		return err
	}
	rec, ok := m.records[id]
	if !ok {
		return &RemoteError{Op: "cost-items-replace", Status: 404, Message: fmt.Sprintf("record %d not found", id)}
	}
	var next []CostItemPayload
	if !level.CanManageAdminItems() {
		for _, existing := range rec.costs {
			if existing.AdminOnly {
				next = append(next, existing)
			}
		}
		for _, item := range items {
			if item.AdminOnly {
				return &RemoteError{Op: "cost-items-replace", Status: 403, Message: "admin-only item requires elevated privilege"}
			}
		}
	}
	for _, item := range items {
		if _, err := strconv.ParseInt(item.ID, 10, 64); err != nil {
			item.ID = strconv.FormatInt(m.assignID(), 10)
		}
		next = append(next, item)
	}
	rec.costs = next
	return nil
}

// UpsertShipments implements Gateway.
func (m *Memory) UpsertShipments(ctx context.Context, id int64, items []ShipmentPayload) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.observe("shipments-upsert"); err != nil {
		return nil, err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, &RemoteError{Op: "shipments-upsert", Status: 404, Message: fmt.Sprintf("record %d not found", id)}
	}
	existingImages := make(map[int64][]string, len(rec.shipments))
	for _, s := range rec.shipments {
		existingImages[s.id] = s.images
	}
	ids := make([]int64, 0, len(items))
	next := make([]memoryShipment, 0, len(items))
	for _, item := range items {
		sid := m.parseOrAssign(item.ID)
		item.ID = strconv.FormatInt(sid, 10)
		next = append(next, memoryShipment{id: sid, payload: item, images: existingImages[sid]})
		ids = append(ids, sid)
	}
	rec.shipments = next
	return ids, nil
}

// UpsertReturns implements Gateway.
func (m *Memory) UpsertReturns(ctx context.Context, id int64, items []ReturnPayload) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.observe("returns-upsert"); err != nil {
		return nil, err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, &RemoteError{Op: "returns-upsert", Status: 404, Message: fmt.Sprintf("record %d not found", id)}
	}
	existingImages := make(map[int64][]string, len(rec.returns))
	for _, r := range rec.returns {
		existingImages[r.id] = r.images
	}
	ids := make([]int64, 0, len(items))
	next := make([]memoryReturn, 0, len(items))
	for _, item := range items {
		rid := m.parseOrAssign(item.ID)
		item.ID = strconv.FormatInt(rid, 10)
		next = append(next, memoryReturn{id: rid, payload: item, images: existingImages[rid]})
		ids = append(ids, rid)
	}
	rec.returns = next
	return ids, nil
}

// UploadImages implements Gateway. Uploaded files become server URLs on the
// targeted sub-entity.
func (m *Memory) UploadImages(ctx context.Context, id int64, kind ImageKind, relatedID int64, files []ImageFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.observe("upload-images"); err != nil {
		return err
	}
	if err := m.FailUploadFor[relatedID]; err != nil {
		return err
	}
	rec, ok := m.records[id]
	if !ok {
		return &RemoteError{Op: "upload-images", Status: 404, Message: fmt.Sprintf("record %d not found", id)}
	}
	names := make([]string, 0, len(files))
	urls := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
		urls = append(urls, fmt.Sprintf("https://cdn.example/%s/%d/%s", kind, relatedID, f.Name))
	}
	m.Uploads = append(m.Uploads, UploadCall{RecordID: id, Kind: kind, RelatedID: relatedID, Names: names})
	switch kind {
	case ImageKindShipment:
		for i := range rec.shipments {
			if rec.shipments[i].id == relatedID {
				rec.shipments[i].images = append(rec.shipments[i].images, urls...)
				return nil
			}
		}
	case ImageKindReturn:
		for i := range rec.returns {
			if rec.returns[i].id == relatedID {
				rec.returns[i].images = append(rec.returns[i].images, urls...)
				return nil
			}
		}
	}
	return &RemoteError{Op: "upload-images", Status: 404, Message: fmt.Sprintf("%s %d not found", kind, relatedID)}
}

// CallsNamed counts recorded invocations of one operation.
func (m *Memory) CallsNamed(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *Memory) observe(op string) error {
	m.Calls = append(m.Calls, op)
	if err := m.FailOn[op]; err != nil {
		return err
	}
	return nil
}

func (m *Memory) assignID() int64 {
	m.nextID++
	return m.nextID + 100 // keep assigned IDs visibly distinct from seed ordinals
}

func (m *Memory) parseOrAssign(id string) int64 {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > 0 {
		return n
	}
	return m.assignID()
}

func (r *memoryRecord) snapshot() RawRecord {
	out := r.raw
	out.CostItems = nil
	for _, c := range r.costs {
		out.CostItems = append(out.CostItems, RawCostItem{
			ID:        c.ID,
			Kind:      c.Kind,
			Name:      ptrTo(c.Name),
			UnitPrice: ptrTo(c.UnitPrice),
			Quantity:  ptrTo(c.Quantity),
			AdminOnly: ptrTo(c.AdminOnly),
		})
	}
	out.Shipments = nil
	for _, s := range r.shipments {
		out.Shipments = append(out.Shipments, RawShipment{
			ID:         s.payload.ID,
			Date:       s.payload.Date,
			Quantity:   ptrTo(s.payload.Quantity),
			Courier:    ptrTo(s.payload.Courier),
			TrackingNo: ptrTo(s.payload.TrackingNo),
			Note:       ptrTo(s.payload.Note),
			Images:     append([]string(nil), s.images...),
		})
	}
	out.Returns = nil
	for _, ret := range r.returns {
		out.Returns = append(out.Returns, RawReturn{
			ID:       ret.payload.ID,
			Date:     ret.payload.Date,
			Quantity: ptrTo(ret.payload.Quantity),
			Reason:   ptrTo(ret.payload.Reason),
			Note:     ptrTo(ret.payload.Note),
			Images:   append([]string(nil), ret.images...),
		})
	}
	return out
}

func ptrTo[T any](v T) *T { return &v }

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func boolValue(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}
