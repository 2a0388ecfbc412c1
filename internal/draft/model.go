// Package draft holds the live, user-editable purchase-order aggregate, the
// immutable baseline it is compared against, and the dirty detection between
// the two. The aggregate is plain mutable data; a single UI goroutine owns
// all mutation, so the types themselves carry no locking.
package draft

import "errors"

// Sentinel errors for collection mutators.
var (
	// ErrItemNotFound indicates a mutator targeted an ID absent from the
	// collection.
	ErrItemNotFound = errors.New("draft: item not found")
)

// CostKind distinguishes the two parallel cost-item collections.
type CostKind string

// Cost item kinds.
const (
	CostKindOption CostKind = "option"
	CostKindLabor  CostKind = "labor"
)

// CostItem is one line of option or labor cost. The line total is derived,
// never stored; see Cost.
type CostItem struct {
	ID        ID
	Kind      CostKind
	Name      string
	UnitPrice float64
	Quantity  float64
	AdminOnly bool
}

// Cost returns unit price times quantity. Keeping this a computed value is
// what guarantees it can never go stale against its inputs.
func (c CostItem) Cost() float64 {
	return c.UnitPrice * c.Quantity
}

// LocalImage is a picker-provided attachment queued for upload.
type LocalImage struct {
	URI  string
	Name string
	MIME string
}

// Shipment is one factory shipment. Images holds confirmed server URLs
// followed by local preview URIs; PendingImages is exactly the local subset,
// in the same relative order. The item is unsynced until PendingImages is
// empty.
type Shipment struct {
	ID            ID
	Date          string
	Quantity      float64
	Courier       string
	TrackingNo    string
	Note          string
	Images        []string
	PendingImages []LocalImage
}

// Unsynced reports whether any queued image still awaits upload.
func (s Shipment) Unsynced() bool {
	return len(s.PendingImages) > 0
}

// ReturnItem is one return/exchange line, image handling identical to
// Shipment.
type ReturnItem struct {
	ID            ID
	Date          string
	Quantity      float64
	Reason        string
	Note          string
	Images        []string
	PendingImages []LocalImage
}

// Unsynced reports whether any queued image still awaits upload.
func (r ReturnItem) Unsynced() bool {
	return len(r.PendingImages) > 0
}

// Scalars carries the editable scalar fields of the order. It is embedded in
// Order and duplicated inside the baseline; being a value type of comparable
// fields, two Scalars compare with ==.
type Scalars struct {
	UnitPrice             float64
	BackMargin            float64
	Quantity              float64
	ShippingCost          float64
	WarehouseShippingCost float64
	CommissionRate        float64
	CommissionType        string
	PackagingCount        float64
	OrderDate             string
	DeliveryDate          string
	WorkStartDate         string
	WorkEndDate           string
	AdvanceRate           float64
	AdvanceDate           string
	BalanceRate           float64
	BalanceDate           string
	OrderConfirmed        bool
	ProductName           string
	ProductSize           string
	ProductWeight         string
	PackagingSize         string
}

// Order is the live aggregate under edit. Numeric fields are always finite
// and date fields always "" or YYYY-MM-DD; server input is normalized once
// at adoption and setters keep the invariant afterwards.
type Order struct {
	ID int64
	Scalars

	CostItems []CostItem
	Shipments []Shipment
	Returns   []ReturnItem
}

// ItemsOf returns the cost items of one kind, in collection order.
func (o *Order) ItemsOf(kind CostKind) []CostItem {
	var out []CostItem
	for _, item := range o.CostItems {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// AddCostItem appends a cost item under a fresh local ID and returns it.
func (o *Order) AddCostItem(kind CostKind, name string, unitPrice, quantity float64, adminOnly bool) CostItem {
	item := CostItem{
		ID:        NewLocalID(),
		Kind:      kind,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		AdminOnly: adminOnly,
	}
	o.CostItems = append(o.CostItems, item)
	return item
}

// CostItemPatch updates selected fields of a cost item.
type CostItemPatch struct {
	Name      *string
	UnitPrice *float64
	Quantity  *float64
	AdminOnly *bool
}

// UpdateCostItem applies a patch to the item with the given ID.
func (o *Order) UpdateCostItem(id ID, patch CostItemPatch) error {
	for i := range o.CostItems {
		if o.CostItems[i].ID != id {
			continue
		}
		if patch.Name != nil {
			o.CostItems[i].Name = *patch.Name
		}
		if patch.UnitPrice != nil {
			o.CostItems[i].UnitPrice = *patch.UnitPrice
		}
		if patch.Quantity != nil {
			o.CostItems[i].Quantity = *patch.Quantity
		}
		if patch.AdminOnly != nil {
			o.CostItems[i].AdminOnly = *patch.AdminOnly
		}
		return nil
	}
	return ErrItemNotFound
}

// RemoveCostItem filters the item out. A removed item simply never appears
// in the next save payload; the wholesale replace call is what deletes it
// server-side. There are no tombstones.
func (o *Order) RemoveCostItem(id ID) {
	o.CostItems = removeByID(o.CostItems, id, func(c CostItem) ID { return c.ID })
}

// AddShipment appends a shipment under a fresh local ID and returns it.
func (o *Order) AddShipment(date string, quantity float64) Shipment {
	s := Shipment{ID: NewLocalID(), Date: date, Quantity: quantity}
	o.Shipments = append(o.Shipments, s)
	return s
}

// ShipmentPatch updates selected fields of a shipment.
type ShipmentPatch struct {
	Date       *string
	Quantity   *float64
	Courier    *string
	TrackingNo *string
	Note       *string
}

// UpdateShipment applies a patch to the shipment with the given ID.
func (o *Order) UpdateShipment(id ID, patch ShipmentPatch) error {
	for i := range o.Shipments {
		if o.Shipments[i].ID != id {
			continue
		}
		if patch.Date != nil {
			o.Shipments[i].Date = *patch.Date
		}
		if patch.Quantity != nil {
			o.Shipments[i].Quantity = *patch.Quantity
		}
		if patch.Courier != nil {
			o.Shipments[i].Courier = *patch.Courier
		}
		if patch.TrackingNo != nil {
			o.Shipments[i].TrackingNo = *patch.TrackingNo
		}
		if patch.Note != nil {
			o.Shipments[i].Note = *patch.Note
		}
		return nil
	}
	return ErrItemNotFound
}

// RemoveShipment filters the shipment out.
func (o *Order) RemoveShipment(id ID) {
	o.Shipments = removeByID(o.Shipments, id, func(s Shipment) ID { return s.ID })
}

// QueueShipmentImage appends a local image to both the preview list and the
// pending queue, preserving the confirmed-then-pending ordering invariant.
func (o *Order) QueueShipmentImage(id ID, img LocalImage) error {
	for i := range o.Shipments {
		if o.Shipments[i].ID != id {
			continue
		}
		o.Shipments[i].Images = append(o.Shipments[i].Images, img.URI)
		o.Shipments[i].PendingImages = append(o.Shipments[i].PendingImages, img)
		return nil
	}
	return ErrItemNotFound
}

// AddReturn appends a return/exchange item under a fresh local ID.
func (o *Order) AddReturn(date string, quantity float64, reason string) ReturnItem {
	r := ReturnItem{ID: NewLocalID(), Date: date, Quantity: quantity, Reason: reason}
	o.Returns = append(o.Returns, r)
	return r
}

// ReturnPatch updates selected fields of a return item.
type ReturnPatch struct {
	Date     *string
	Quantity *float64
	Reason   *string
	Note     *string
}

// UpdateReturn applies a patch to the return item with the given ID.
func (o *Order) UpdateReturn(id ID, patch ReturnPatch) error {
	for i := range o.Returns {
		if o.Returns[i].ID != id {
			continue
		}
		if patch.Date != nil {
			o.Returns[i].Date = *patch.Date
		}
		if patch.Quantity != nil {
			o.Returns[i].Quantity = *patch.Quantity
		}
		if patch.Reason != nil {
			o.Returns[i].Reason = *patch.Reason
		}
		if patch.Note != nil {
			o.Returns[i].Note = *patch.Note
		}
		return nil
	}
	return ErrItemNotFound
}

// RemoveReturn filters the return item out.
func (o *Order) RemoveReturn(id ID) {
	o.Returns = removeByID(o.Returns, id, func(r ReturnItem) ID { return r.ID })
}

// QueueReturnImage appends a local image to a return item.
func (o *Order) QueueReturnImage(id ID, img LocalImage) error {
	for i := range o.Returns {
		if o.Returns[i].ID != id {
			continue
		}
		o.Returns[i].Images = append(o.Returns[i].Images, img.URI)
		o.Returns[i].PendingImages = append(o.Returns[i].PendingImages, img)
		return nil
	}
	return ErrItemNotFound
}

// Clone deep-copies the aggregate. The save pipeline works on a clone so
// edits during a slow save cannot corrupt the in-flight request.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.CostItems = append([]CostItem(nil), o.CostItems...)
	cp.Shipments = cloneShipments(o.Shipments)
	cp.Returns = cloneReturns(o.Returns)
	return &cp
}

func cloneShipments(in []Shipment) []Shipment {
	if in == nil {
		return nil
	}
	out := make([]Shipment, len(in))
	for i, s := range in {
		s.Images = append([]string(nil), s.Images...)
		s.PendingImages = append([]LocalImage(nil), s.PendingImages...)
		out[i] = s
	}
	return out
}

func cloneReturns(in []ReturnItem) []ReturnItem {
	if in == nil {
		return nil
	}
	out := make([]ReturnItem, len(in))
	for i, r := range in {
		r.Images = append([]string(nil), r.Images...)
		r.PendingImages = append([]LocalImage(nil), r.PendingImages...)
		out[i] = r
	}
	return out
}

func removeByID[T any](items []T, id ID, idOf func(T) ID) []T {
	out := items[:0]
	for _, item := range items {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}
