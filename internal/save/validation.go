package save

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/orderdraft/orderdraft/internal/draft"
	"github.com/orderdraft/orderdraft/internal/gateway"
)

// ErrValidation indicates a local pre-flight failure; nothing was sent.
var ErrValidation = errors.New("save: invalid draft")

type preflightPayload struct {
	RecordID  int64   `validate:"required,gt=0"`
	UnitPrice float64 `validate:"gte=0"`
	Quantity  float64 `validate:"gte=0"`
}

type preflightCostItem struct {
	Name      string  `validate:"required"`
	UnitPrice float64 `validate:"gte=0"`
	Quantity  float64 `validate:"gte=0"`
}

// preflight rejects a draft before any network call. Admin-only cost items
// authored by a non-privileged actor are a hard failure: they can never be
// sent, and dropping a locally created line silently would lose the user's
// input.
func (p *Pipeline) preflight(in Input) error {
	if in.Order == nil {
		return fmt.Errorf("%w: no order", ErrValidation)
	}
	payload := preflightPayload{
		RecordID:  in.RecordID,
		UnitPrice: in.Order.UnitPrice,
		Quantity:  in.Order.Quantity,
	}
	if err := p.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for _, item := range in.Order.CostItems {
		if err := p.validate.Struct(preflightCostItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}); err != nil {
			return fmt.Errorf("%w: cost item %s: %v", ErrValidation, item.ID, err)
		}
		if item.AdminOnly && item.ID.IsLocal() && !in.ActorLevel.CanManageAdminItems() {
			return fmt.Errorf("%w: cost item %s is admin-only and the actor lacks privilege", ErrValidation, item.ID)
		}
	}
	return nil
}

// costItemPayloads builds the wholesale replace payload. Persisted
// admin-only rows are stripped for non-privileged actors — the service keeps
// its own copies of those rows, so stripping does not delete them.
func costItemPayloads(items []draft.CostItem, level gateway.ActorLevel) []gateway.CostItemPayload {
	out := make([]gateway.CostItemPayload, 0, len(items))
	for _, item := range items {
		if item.AdminOnly && !level.CanManageAdminItems() {
			continue
		}
		out = append(out, gateway.CostItemPayload{
			ID:        item.ID.String(),
			Kind:      string(item.Kind),
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			AdminOnly: item.AdminOnly,
		})
	}
	return out
}

func newValidator() *validator.Validate {
	return validator.New()
}
