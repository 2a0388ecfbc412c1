// Command orderdraft demonstrates the draft editing session end to end:
// load a record, mutate the draft, watch the dirty flag, save, and report
// the reconciled result. With GATEWAY_URL unset it runs against a seeded
// in-memory gateway.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/orderdraft/orderdraft/internal/app"
	"github.com/orderdraft/orderdraft/internal/draft"
	"github.com/orderdraft/orderdraft/internal/editor"
	"github.com/orderdraft/orderdraft/internal/gateway"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	var gw gateway.Gateway
	if cfg.GatewayURL != "" {
		gw = gateway.NewHTTPGateway(cfg.GatewayURL,
			gateway.WithToken(cfg.GatewayToken),
			gateway.WithTimeout(cfg.GatewayTimeout))
		logger.Info("using remote gateway", slog.String("url", cfg.GatewayURL))
	} else {
		gw = seededGateway(cfg.RecordID)
		logger.Info("using in-memory gateway")
	}

	session := editor.NewSession(gw, cfg.Level(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := session.Load(ctx, cfg.RecordID); err != nil {
		logger.Error("load record", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("record loaded", slog.Int64("record_id", cfg.RecordID), slog.Bool("dirty", session.IsDirty()))

	err = session.Mutate(func(o *draft.Order) {
		o.Quantity = o.Quantity + 2
		o.DeliveryDate = "2024-05-01"
		added := o.AddShipment("2024-04-20", 25)
		_ = o.QueueShipmentImage(added.ID, draft.LocalImage{
			URI:  "file:///tmp/packing-list.jpg",
			Name: "packing-list.jpg",
			MIME: "image/jpeg",
		})
	})
	if err != nil {
		logger.Error("mutate draft", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("draft edited", slog.Bool("dirty", session.IsDirty()))

	if err := session.Save(ctx, editor.SaveOptions{}); err != nil {
		logger.Error("save", slog.Any("error", err))
		os.Exit(1)
	}

	savedAt := session.LastSavedAt()
	logger.Info("record saved",
		slog.Bool("dirty", session.IsDirty()),
		slog.Time("saved_at", *savedAt))

	order, err := session.Order()
	if err != nil {
		logger.Error("read draft", slog.Any("error", err))
		os.Exit(1)
	}
	for _, s := range order.Shipments {
		logger.Info("shipment",
			slog.String("id", s.ID.String()),
			slog.String("date", s.Date),
			slog.Int("images", len(s.Images)),
			slog.Bool("unsynced", s.Unsynced()))
	}
}

func seededGateway(recordID int64) *gateway.Memory {
	mem := gateway.NewMemory()
	unitPrice, quantity := 12000.0, 10.0
	orderDate := "2024-03-05T00:00:00Z"
	name := "canvas tote"
	optName, optPrice, optQty := "zipper", 300.0, 2.0
	shipDate, shipQty := "2024-04-01", 50.0
	mem.Seed(gateway.RawRecord{
		ID:          recordID,
		UnitPrice:   &unitPrice,
		Quantity:    &quantity,
		OrderDate:   &orderDate,
		ProductName: &name,
		CostItems: []gateway.RawCostItem{
			{ID: "1", Kind: "option", Name: &optName, UnitPrice: &optPrice, Quantity: &optQty},
		},
		Shipments: []gateway.RawShipment{
			{ID: "5", Date: &shipDate, Quantity: &shipQty},
		},
	})
	return mem
}
