// Package gateway defines the contract with the remote persistence service.
// The service offers no multi-resource transaction: the order record, its
// cost items, shipments, returns and images are each written by an
// independent REST call. Transport and authentication details live behind
// the Gateway interface; the rest of the repository only sees these
// operations and the loose wire shapes they exchange.
package gateway

import (
	"context"
	"fmt"
)

// ActorLevel is the privilege level of the user performing a save.
type ActorLevel int

// Privilege levels recognised by the service.
const (
	ActorLevelStaff ActorLevel = 1
	ActorLevelAdmin ActorLevel = 10
)

// CanManageAdminItems reports whether the actor may read or write cost items
// flagged admin-only.
func (l ActorLevel) CanManageAdminItems() bool {
	return l >= ActorLevelAdmin
}

// ImageKind selects which sub-entity an image upload is attached to.
type ImageKind string

// Image upload targets.
const (
	ImageKindShipment ImageKind = "shipment"
	ImageKindReturn   ImageKind = "return"
)

// ImageFile is one locally queued attachment to upload. URI points at the
// picker-provided local file; resolving it to bytes is the transport's job.
type ImageFile struct {
	Name string
	MIME string
	URI  string
}

// RawRecord is the order record as the service returns it: optional columns
// are pointers and dates arrive in whichever shape the backing store used.
type RawRecord struct {
	ID                    int64          `json:"id"`
	UnitPrice             *float64       `json:"unit_price"`
	BackMargin            *float64       `json:"back_margin"`
	Quantity              *float64       `json:"quantity"`
	ShippingCost          *float64       `json:"shipping_cost"`
	WarehouseShippingCost *float64       `json:"warehouse_shipping_cost"`
	CommissionRate        *float64       `json:"commission_rate"`
	CommissionType        *string        `json:"commission_type"`
	PackagingCount        *float64       `json:"packaging_count"`
	OrderDate             *string        `json:"order_date"`
	DeliveryDate          *string        `json:"delivery_date"`
	WorkStartDate         *string        `json:"work_start_date"`
	WorkEndDate           *string        `json:"work_end_date"`
	AdvanceRate           *float64       `json:"advance_rate"`
	AdvanceDate           *string        `json:"advance_date"`
	BalanceRate           *float64       `json:"balance_rate"`
	BalanceDate           *string        `json:"balance_date"`
	OrderConfirmed        *bool          `json:"order_confirmed"`
	ProductName           *string        `json:"product_name"`
	ProductSize           *string        `json:"product_size"`
	ProductWeight         *string        `json:"product_weight"`
	PackagingSize         *string        `json:"packaging_size"`
	CostItems             []RawCostItem  `json:"cost_items"`
	Shipments             []RawShipment  `json:"factory_shipments"`
	Returns               []RawReturn    `json:"return_exchanges"`
}

// RawCostItem is a nested cost item as fetched.
type RawCostItem struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Name      *string  `json:"name"`
	UnitPrice *float64 `json:"unit_price"`
	Quantity  *float64 `json:"quantity"`
	AdminOnly *bool    `json:"is_admin_only"`
}

// RawShipment is a nested factory shipment as fetched.
type RawShipment struct {
	ID         string   `json:"id"`
	Date       *string  `json:"shipment_date"`
	Quantity   *float64 `json:"quantity"`
	Courier    *string  `json:"courier"`
	TrackingNo *string  `json:"tracking_no"`
	Note       *string  `json:"note"`
	Images     []string `json:"images"`
}

// RawReturn is a nested return/exchange item as fetched.
type RawReturn struct {
	ID       string   `json:"id"`
	Date     *string  `json:"return_date"`
	Quantity *float64 `json:"quantity"`
	Reason   *string  `json:"reason"`
	Note     *string  `json:"note"`
	Images   []string `json:"images"`
}

// ScalarPatch carries the scalar fields of a record for the update call.
// Dates are pointers because the service encodes "cleared" as NULL.
type ScalarPatch struct {
	UnitPrice             float64 `json:"unit_price"`
	BackMargin            float64 `json:"back_margin"`
	Quantity              float64 `json:"quantity"`
	ShippingCost          float64 `json:"shipping_cost"`
	WarehouseShippingCost float64 `json:"warehouse_shipping_cost"`
	CommissionRate        float64 `json:"commission_rate"`
	CommissionType        string  `json:"commission_type"`
	PackagingCount        float64 `json:"packaging_count"`
	OrderDate             *string `json:"order_date"`
	DeliveryDate          *string `json:"delivery_date"`
	WorkStartDate         *string `json:"work_start_date"`
	WorkEndDate           *string `json:"work_end_date"`
	AdvanceRate           float64 `json:"advance_rate"`
	AdvanceDate           *string `json:"advance_date"`
	BalanceRate           float64 `json:"balance_rate"`
	BalanceDate           *string `json:"balance_date"`
	OrderConfirmed        bool    `json:"order_confirmed"`
	ProductName           string  `json:"product_name"`
	ProductSize           string  `json:"product_size"`
	ProductWeight         string  `json:"product_weight"`
	PackagingSize         string  `json:"packaging_size"`
}

// CostItemPayload is one cost item in the wholesale replace call. A client
// side item that has never been persisted carries its temporary token in ID;
// the service ignores unknown tokens and assigns fresh rows.
type CostItemPayload struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
	AdminOnly bool    `json:"is_admin_only"`
}

// ShipmentPayload is one shipment in the upsert call.
type ShipmentPayload struct {
	ID         string  `json:"id"`
	Date       *string `json:"shipment_date"`
	Quantity   float64 `json:"quantity"`
	Courier    string  `json:"courier"`
	TrackingNo string  `json:"tracking_no"`
	Note       string  `json:"note"`
}

// ReturnPayload is one return/exchange item in the upsert call.
type ReturnPayload struct {
	ID       string  `json:"id"`
	Date     *string `json:"return_date"`
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason"`
	Note     string  `json:"note"`
}

// Gateway is the persistence service seen from the client. Upserts return
// the server-assigned ID for every input item, in input order; that
// positional contract is what makes temporary-ID reconciliation possible.
type Gateway interface {
	FetchRecord(ctx context.Context, id int64) (RawRecord, error)
	UpdateScalarFields(ctx context.Context, id int64, patch ScalarPatch) (RawRecord, error)
	ReplaceCostItems(ctx context.Context, id int64, items []CostItemPayload, level ActorLevel) error
	UpsertShipments(ctx context.Context, id int64, items []ShipmentPayload) ([]int64, error)
	UpsertReturns(ctx context.Context, id int64, items []ReturnPayload) ([]int64, error)
	UploadImages(ctx context.Context, id int64, kind ImageKind, relatedID int64, files []ImageFile) error
}

// RemoteError reports a call the service rejected. Message carries the
// server's own text so the UI can surface it verbatim.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("gateway: %s: status %d", e.Op, e.Status)
}
