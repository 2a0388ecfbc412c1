package save

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdraft/orderdraft/internal/draft"
	"github.com/orderdraft/orderdraft/internal/gateway"
)

func ptr[T any](v T) *T { return &v }

func seededGateway() *gateway.Memory {
	mem := gateway.NewMemory()
	mem.Seed(gateway.RawRecord{
		ID:        1,
		UnitPrice: ptr(12000.0),
		Quantity:  ptr(10.0),
		Shipments: []gateway.RawShipment{
			{ID: "5", Date: ptr("2024-04-01"), Quantity: ptr(50.0)},
		},
	})
	return mem
}

func draftFixture() *draft.Order {
	o := &draft.Order{ID: 1}
	o.UnitPrice = 12000
	o.Quantity = 12
	o.OrderDate = "2024-03-05"
	o.AddCostItem(draft.CostKindOption, "zipper", 300, 2, false)
	o.Shipments = []draft.Shipment{
		{ID: draft.PersistedID(5), Date: "2024-04-01", Quantity: 50},
	}
	return o
}

func run(t *testing.T, mem *gateway.Memory, o *draft.Order, level gateway.ActorLevel) (Result, error) {
	t.Helper()
	p := NewPipeline(mem, nil)
	return p.Run(context.Background(), Input{RecordID: o.ID, Order: o, ActorLevel: level})
}

func TestFullPipelineSucceeds(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()

	res, err := run(t, mem, o, gateway.ActorLevelStaff)
	require.NoError(t, err)

	require.Equal(t, []string{"scalar-update", "cost-items-replace", "shipments-upsert", "returns-upsert"}, mem.Calls)
	require.Equal(t, 12.0, *res.Record.Quantity)
	require.Empty(t, res.ImageFailures)
}

func TestTemporaryIDReconciliation(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()
	a := o.AddShipment("2024-04-10", 20)
	b := o.AddShipment("2024-04-20", 30)
	require.NoError(t, o.QueueShipmentImage(a.ID, draft.LocalImage{URI: "file:///a.jpg", Name: "a.jpg"}))
	require.NoError(t, o.QueueShipmentImage(b.ID, draft.LocalImage{URI: "file:///b.jpg", Name: "b.jpg"}))

	res, err := run(t, mem, o, gateway.ActorLevelStaff)
	require.NoError(t, err)

	// Every shipment leaves with a server ID.
	for _, s := range res.Shipments {
		_, ok := s.ID.Server()
		require.True(t, ok)
		require.False(t, s.Unsynced(), "uploaded items shed their pending queue")
	}

	// Uploads targeted the server IDs assigned positionally, never the
	// temporary tokens.
	require.Len(t, mem.Uploads, 2)
	idA, _ := res.Shipments[1].ID.Server()
	idB, _ := res.Shipments[2].ID.Server()
	targetByName := make(map[string]int64)
	for _, call := range mem.Uploads {
		require.Len(t, call.Names, 1)
		targetByName[call.Names[0]] = call.RelatedID
	}
	require.Equal(t, idA, targetByName["a.jpg"])
	require.Equal(t, idB, targetByName["b.jpg"])
}

func TestAbortOnScalarUpdateFailure(t *testing.T) {
	mem := seededGateway()
	mem.FailOn["scalar-update"] = &gateway.RemoteError{Op: "scalar-update", Status: 500, Message: "boom"}

	_, err := run(t, mem, draftFixture(), gateway.ActorLevelStaff)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, StepScalarUpdate, stepErr.Step)

	// Nothing downstream may have been attempted.
	require.Zero(t, mem.CallsNamed("cost-items-replace"))
	require.Zero(t, mem.CallsNamed("shipments-upsert"))
	require.Zero(t, mem.CallsNamed("returns-upsert"))
	require.Zero(t, mem.CallsNamed("upload-images"))
}

func TestAbortOnShipmentsUpsertSkipsRemainder(t *testing.T) {
	mem := seededGateway()
	mem.FailOn["shipments-upsert"] = &gateway.RemoteError{Op: "shipments-upsert", Status: 500, Message: "boom"}

	_, err := run(t, mem, draftFixture(), gateway.ActorLevelStaff)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, StepShipmentsUpsert, stepErr.Step)

	// Earlier writes stand; image uploads and the returns upsert never ran.
	require.Equal(t, 1, mem.CallsNamed("scalar-update"))
	require.Equal(t, 1, mem.CallsNamed("cost-items-replace"))
	require.Zero(t, mem.CallsNamed("returns-upsert"))
	require.Zero(t, mem.CallsNamed("upload-images"))
}

func TestValidationAbortsBeforeAnyNetworkCall(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()
	o.AddCostItem(draft.CostKindLabor, "off-book adjustment", 5000, 1, true)

	_, err := run(t, mem, o, gateway.ActorLevelStaff)
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, mem.Calls, "validation failures must abort before the network")
}

func TestAdminItemAllowedForAdmin(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()
	o.AddCostItem(draft.CostKindLabor, "off-book adjustment", 5000, 1, true)

	_, err := run(t, mem, o, gateway.ActorLevelAdmin)
	require.NoError(t, err)
}

func TestPersistedAdminItemsStrippedForStaff(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()
	// Came down from the server in an admin's session; a staff save must not
	// send it, and the service keeps its own copy.
	o.CostItems = append(o.CostItems, draft.CostItem{
		ID: draft.PersistedID(77), Kind: draft.CostKindLabor, Name: "margin", UnitPrice: 1, Quantity: 1, AdminOnly: true,
	})

	_, err := run(t, mem, o, gateway.ActorLevelStaff)
	require.NoError(t, err)
}

func TestImageUploadFailureKeepsPipelineGoing(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()
	s := o.AddShipment("2024-04-10", 20)
	require.NoError(t, o.QueueShipmentImage(s.ID, draft.LocalImage{URI: "file:///a.jpg", Name: "a.jpg"}))
	r := o.AddReturn("2024-04-11", 1, "defect")
	require.NoError(t, o.QueueReturnImage(r.ID, draft.LocalImage{URI: "file:///b.jpg", Name: "b.jpg"}))

	// The fake assigns 101+ to new rows in upsert order: the new shipment
	// first, the new return second.
	mem.FailUploadFor[101] = errors.New("disk full")

	res, err := run(t, mem, o, gateway.ActorLevelStaff)
	require.NoError(t, err, "image failures never fail the save")

	// The returns upsert and its upload still ran.
	require.Equal(t, 1, mem.CallsNamed("returns-upsert"))
	require.Len(t, res.ImageFailures, 1)
	require.Equal(t, gateway.ImageKindShipment, res.ImageFailures[0].Kind)

	// The failed item keeps its pending queue and stays unsynced.
	var failedShipment *draft.Shipment
	for i := range res.Shipments {
		if id, _ := res.Shipments[i].ID.Server(); id == 101 {
			failedShipment = &res.Shipments[i]
		}
	}
	require.NotNil(t, failedShipment)
	require.True(t, failedShipment.Unsynced())

	// The return upload succeeded and was folded.
	for _, ret := range res.Returns {
		require.False(t, ret.Unsynced())
	}
}

func TestUpsertLengthMismatchAborts(t *testing.T) {
	mem := &lengthMismatchGateway{Memory: seededGateway()}
	p := NewPipeline(mem, nil)
	o := draftFixture()

	_, err := p.Run(context.Background(), Input{RecordID: 1, Order: o, ActorLevel: gateway.ActorLevelStaff})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, StepShipmentsUpsert, stepErr.Step)
}

type lengthMismatchGateway struct {
	*gateway.Memory
}

func (g *lengthMismatchGateway) UpsertShipments(ctx context.Context, id int64, items []gateway.ShipmentPayload) ([]int64, error) {
	ids, err := g.Memory.UpsertShipments(ctx, id, items)
	if err != nil {
		return nil, err
	}
	return ids[:len(ids)-1], nil
}

func TestMissingRecordIDFailsValidation(t *testing.T) {
	mem := seededGateway()
	o := draftFixture()
	o.ID = 0

	_, err := run(t, mem, o, gateway.ActorLevelStaff)
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, mem.Calls)
}
