package draft

import (
	"github.com/orderdraft/orderdraft/internal/gateway"
	"github.com/orderdraft/orderdraft/internal/normalize"
)

// FromRaw builds a live Order from a fetched record. This is the single
// point where server values are normalized; after it, the aggregate
// invariants (finite numbers, canonical dates) hold everywhere.
func FromRaw(raw gateway.RawRecord) *Order {
	o := &Order{
		ID:        raw.ID,
		Scalars:   ScalarsFromRaw(raw),
		CostItems: costItemsFromRaw(raw.CostItems),
		Shipments: shipmentsFromRaw(raw.Shipments),
		Returns:   returnsFromRaw(raw.Returns),
	}
	return o
}

// ScalarsFromRaw normalizes the scalar fields of a fetched record.
func ScalarsFromRaw(raw gateway.RawRecord) Scalars {
	return Scalars{
		UnitPrice:             normalize.Number(raw.UnitPrice),
		BackMargin:            normalize.Number(raw.BackMargin),
		Quantity:              normalize.Number(raw.Quantity),
		ShippingCost:          normalize.Number(raw.ShippingCost),
		WarehouseShippingCost: normalize.Number(raw.WarehouseShippingCost),
		CommissionRate:        normalize.Number(raw.CommissionRate),
		CommissionType:        normalize.String(raw.CommissionType),
		PackagingCount:        normalize.Number(raw.PackagingCount),
		OrderDate:             normalize.DatePtr(raw.OrderDate),
		DeliveryDate:          normalize.DatePtr(raw.DeliveryDate),
		WorkStartDate:         normalize.DatePtr(raw.WorkStartDate),
		WorkEndDate:           normalize.DatePtr(raw.WorkEndDate),
		AdvanceRate:           normalize.Number(raw.AdvanceRate),
		AdvanceDate:           normalize.DatePtr(raw.AdvanceDate),
		BalanceRate:           normalize.Number(raw.BalanceRate),
		BalanceDate:           normalize.DatePtr(raw.BalanceDate),
		OrderConfirmed:        normalize.Boolean(raw.OrderConfirmed),
		ProductName:           normalize.String(raw.ProductName),
		ProductSize:           normalize.String(raw.ProductSize),
		ProductWeight:         normalize.String(raw.ProductWeight),
		PackagingSize:         normalize.String(raw.PackagingSize),
	}
}

// Normalized re-applies scalar normalization. The live aggregate already
// holds canonical values, so this is cheap; dirty detection runs it anyway
// so a value that slipped in unnormalized can never produce a phantom diff.
func (s Scalars) Normalized() Scalars {
	s.UnitPrice = normalize.NumberValue(s.UnitPrice)
	s.BackMargin = normalize.NumberValue(s.BackMargin)
	s.Quantity = normalize.NumberValue(s.Quantity)
	s.ShippingCost = normalize.NumberValue(s.ShippingCost)
	s.WarehouseShippingCost = normalize.NumberValue(s.WarehouseShippingCost)
	s.CommissionRate = normalize.NumberValue(s.CommissionRate)
	s.PackagingCount = normalize.NumberValue(s.PackagingCount)
	s.AdvanceRate = normalize.NumberValue(s.AdvanceRate)
	s.BalanceRate = normalize.NumberValue(s.BalanceRate)
	s.OrderDate = normalize.Date(s.OrderDate)
	s.DeliveryDate = normalize.Date(s.DeliveryDate)
	s.WorkStartDate = normalize.Date(s.WorkStartDate)
	s.WorkEndDate = normalize.Date(s.WorkEndDate)
	s.AdvanceDate = normalize.Date(s.AdvanceDate)
	s.BalanceDate = normalize.Date(s.BalanceDate)
	return s
}

// WirePatch converts the scalars to the update-call payload, encoding absent
// dates as NULL.
func (s Scalars) WirePatch() gateway.ScalarPatch {
	n := s.Normalized()
	return gateway.ScalarPatch{
		UnitPrice:             n.UnitPrice,
		BackMargin:            n.BackMargin,
		Quantity:              n.Quantity,
		ShippingCost:          n.ShippingCost,
		WarehouseShippingCost: n.WarehouseShippingCost,
		CommissionRate:        n.CommissionRate,
		CommissionType:        n.CommissionType,
		PackagingCount:        n.PackagingCount,
		OrderDate:             normalize.WireDate(n.OrderDate),
		DeliveryDate:          normalize.WireDate(n.DeliveryDate),
		WorkStartDate:         normalize.WireDate(n.WorkStartDate),
		WorkEndDate:           normalize.WireDate(n.WorkEndDate),
		AdvanceRate:           n.AdvanceRate,
		AdvanceDate:           normalize.WireDate(n.AdvanceDate),
		BalanceRate:           n.BalanceRate,
		BalanceDate:           normalize.WireDate(n.BalanceDate),
		OrderConfirmed:        n.OrderConfirmed,
		ProductName:           n.ProductName,
		ProductSize:           n.ProductSize,
		ProductWeight:         n.ProductWeight,
		PackagingSize:         n.PackagingSize,
	}
}

func costItemsFromRaw(in []gateway.RawCostItem) []CostItem {
	if len(in) == 0 {
		return nil
	}
	out := make([]CostItem, 0, len(in))
	for _, raw := range in {
		kind := CostKind(raw.Kind)
		if kind != CostKindOption && kind != CostKindLabor {
			kind = CostKindOption
		}
		out = append(out, CostItem{
			ID:        ParseID(raw.ID),
			Kind:      kind,
			Name:      normalize.String(raw.Name),
			UnitPrice: normalize.Number(raw.UnitPrice),
			Quantity:  normalize.Number(raw.Quantity),
			AdminOnly: normalize.Boolean(raw.AdminOnly),
		})
	}
	return out
}

func shipmentsFromRaw(in []gateway.RawShipment) []Shipment {
	if len(in) == 0 {
		return nil
	}
	out := make([]Shipment, 0, len(in))
	for _, raw := range in {
		out = append(out, Shipment{
			ID:         ParseID(raw.ID),
			Date:       normalize.DatePtr(raw.Date),
			Quantity:   normalize.Number(raw.Quantity),
			Courier:    normalize.String(raw.Courier),
			TrackingNo: normalize.String(raw.TrackingNo),
			Note:       normalize.String(raw.Note),
			Images:     append([]string(nil), raw.Images...),
		})
	}
	return out
}

func returnsFromRaw(in []gateway.RawReturn) []ReturnItem {
	if len(in) == 0 {
		return nil
	}
	out := make([]ReturnItem, 0, len(in))
	for _, raw := range in {
		out = append(out, ReturnItem{
			ID:       ParseID(raw.ID),
			Date:     normalize.DatePtr(raw.Date),
			Quantity: normalize.Number(raw.Quantity),
			Reason:   normalize.String(raw.Reason),
			Note:     normalize.String(raw.Note),
			Images:   append([]string(nil), raw.Images...),
		})
	}
	return out
}
