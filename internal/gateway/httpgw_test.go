package gateway_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdraft/orderdraft/internal/gateway"
	"github.com/orderdraft/orderdraft/internal/gateway/gatewaytest"
)

func ptr[T any](v T) *T { return &v }

func newTestGateway(t *testing.T, backend *gateway.Memory) *gateway.HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(gatewaytest.Handler(backend))
	t.Cleanup(srv.Close)
	opener := func(uri string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("jpeg-bytes:" + uri)), nil
	}
	return gateway.NewHTTPGateway(srv.URL, gateway.WithToken("test-token"), gateway.WithFileOpener(opener))
}

func seedBackend() *gateway.Memory {
	mem := gateway.NewMemory()
	mem.Seed(gateway.RawRecord{
		ID:        1,
		UnitPrice: ptr(12000.0),
		Quantity:  ptr(10.0),
		OrderDate: ptr("2024-03-05T00:00:00Z"),
		Shipments: []gateway.RawShipment{
			{ID: "5", Date: ptr("2024-04-01"), Quantity: ptr(50.0)},
		},
	})
	return mem
}

func TestFetchRecord(t *testing.T) {
	gw := newTestGateway(t, seedBackend())

	raw, err := gw.FetchRecord(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), raw.ID)
	require.NotNil(t, raw.UnitPrice)
	require.Equal(t, 12000.0, *raw.UnitPrice)
	require.Len(t, raw.Shipments, 1)
}

func TestFetchRecordNotFound(t *testing.T) {
	gw := newTestGateway(t, seedBackend())

	_, err := gw.FetchRecord(context.Background(), 99)
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, 404, remote.Status)
	require.Contains(t, remote.Message, "not found")
}

func TestUpdateScalarFields(t *testing.T) {
	gw := newTestGateway(t, seedBackend())

	patch := gateway.ScalarPatch{UnitPrice: 13000, Quantity: 12, ProductName: "canvas tote"}
	raw, err := gw.UpdateScalarFields(context.Background(), 1, patch)
	require.NoError(t, err)
	require.Equal(t, 13000.0, *raw.UnitPrice)
	require.Nil(t, raw.OrderDate, "cleared dates travel as null")
}

func TestReplaceCostItemsPrivilege(t *testing.T) {
	gw := newTestGateway(t, seedBackend())

	items := []gateway.CostItemPayload{
		{ID: "temp_x", Kind: "option", Name: "zipper", UnitPrice: 300, Quantity: 2, AdminOnly: true},
	}
	err := gw.ReplaceCostItems(context.Background(), 1, items, gateway.ActorLevelStaff)
	var remote *gateway.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, 403, remote.Status)

	require.NoError(t, gw.ReplaceCostItems(context.Background(), 1, items, gateway.ActorLevelAdmin))
}

func TestUpsertShipmentsAssignsIDsPositionally(t *testing.T) {
	gw := newTestGateway(t, seedBackend())

	items := []gateway.ShipmentPayload{
		{ID: "5", Date: ptr("2024-04-01"), Quantity: 50},
		{ID: "temp_a", Date: ptr("2024-04-10"), Quantity: 20},
		{ID: "temp_b", Date: ptr("2024-04-20"), Quantity: 30},
	}
	ids, err := gw.UpsertShipments(context.Background(), 1, items)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	require.Equal(t, int64(5), ids[0], "existing IDs pass through")
	require.NotEqual(t, ids[1], ids[2])
	require.Greater(t, ids[1], int64(0))
}

func TestUploadImagesMultipart(t *testing.T) {
	backend := seedBackend()
	gw := newTestGateway(t, backend)

	files := []gateway.ImageFile{
		{Name: "a.jpg", MIME: "image/jpeg", URI: "file:///a.jpg"},
		{Name: "b.jpg", MIME: "image/jpeg", URI: "file:///b.jpg"},
	}
	require.NoError(t, gw.UploadImages(context.Background(), 1, gateway.ImageKindShipment, 5, files))

	require.Len(t, backend.Uploads, 1)
	call := backend.Uploads[0]
	require.Equal(t, gateway.ImageKindShipment, call.Kind)
	require.Equal(t, int64(5), call.RelatedID)
	require.Equal(t, []string{"a.jpg", "b.jpg"}, call.Names)

	raw, err := gw.FetchRecord(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, raw.Shipments[0].Images, 2, "uploads fold into server URLs")
}

func TestUploadImagesEmptyIsNoop(t *testing.T) {
	backend := seedBackend()
	gw := newTestGateway(t, backend)

	require.NoError(t, gw.UploadImages(context.Background(), 1, gateway.ImageKindReturn, 7, nil))
	require.Empty(t, backend.Uploads)
}
