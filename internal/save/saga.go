// Package save runs the ordered multi-call pipeline that persists a draft.
// The service has no multi-resource transaction, so the pipeline is a saga:
// a fixed table of steps, each with an explicit on-failure policy. Abort
// steps stop the run and leave earlier writes committed (there is no
// compensation; a user-initiated re-save converges the record, because the
// scalar update and the wholesale cost replace are idempotent and the
// upserts key on persisted IDs). Continue steps — the image uploads — are
// best effort: failures are logged and reported, never fatal.
package save

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/orderdraft/orderdraft/internal/draft"
	"github.com/orderdraft/orderdraft/internal/gateway"
	"github.com/orderdraft/orderdraft/internal/normalize"
)

// Step names, in execution order.
const (
	StepScalarUpdate     = "scalar-update"
	StepCostItemsReplace = "cost-items-replace"
	StepShipmentsUpsert  = "shipments-upsert"
	StepShipmentImages   = "shipment-images"
	StepReturnsUpsert    = "returns-upsert"
	StepReturnImages     = "return-images"
)

// StepError reports which abort step failed. Writes from earlier steps
// stand; the draft stays dirty so nothing the user typed is lost.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("save: step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ImageFailure records one best-effort upload that was skipped.
type ImageFailure struct {
	Kind      gateway.ImageKind
	RelatedID draft.ID
	Err       error
}

// Input is one save attempt. Order must be a private copy (the caller
// clones); the pipeline mutates it during ID reconciliation.
type Input struct {
	RecordID   int64
	Order      *draft.Order
	ActorLevel gateway.ActorLevel
}

// Result is what the caller adopts as the new baseline. Shipments and
// Returns carry reconciled server IDs; items whose uploads failed keep their
// pending images, so they remain visibly unsynced.
type Result struct {
	Record        gateway.RawRecord
	CostItems     []draft.CostItem
	Shipments     []draft.Shipment
	Returns       []draft.ReturnItem
	ImageFailures []ImageFailure
}

type policy int

const (
	abortOnFailure policy = iota
	continueOnFailure
)

type step struct {
	name   string
	policy policy
	run    func(ctx context.Context) error
}

// Pipeline executes save attempts against a gateway. It is stateless across
// runs; the in-flight guard lives with the caller.
type Pipeline struct {
	gw       gateway.Gateway
	logger   *slog.Logger
	validate *validator.Validate
}

// NewPipeline constructs a pipeline.
func NewPipeline(gw gateway.Gateway, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{gw: gw, logger: logger, validate: newValidator()}
}

// Run validates the draft, then walks the step table in order. Steps never
// run concurrently with each other: each one must see the authoritative
// result of its predecessor, in particular the server IDs assigned during
// the upserts.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	if err := p.preflight(in); err != nil {
		return Result{}, err
	}

	work := in.Order.Clone()
	st := &runState{
		recordID:  in.RecordID,
		level:     in.ActorLevel,
		scalars:   work.Scalars,
		costItems: work.CostItems,
		shipments: work.Shipments,
		returns:   work.Returns,
	}

	steps := []step{
		{StepScalarUpdate, abortOnFailure, func(ctx context.Context) error { return p.updateScalars(ctx, st) }},
		{StepCostItemsReplace, abortOnFailure, func(ctx context.Context) error { return p.replaceCostItems(ctx, st) }},
		{StepShipmentsUpsert, abortOnFailure, func(ctx context.Context) error { return p.upsertShipments(ctx, st) }},
		{StepShipmentImages, continueOnFailure, func(ctx context.Context) error { return p.uploadShipmentImages(ctx, st) }},
		{StepReturnsUpsert, abortOnFailure, func(ctx context.Context) error { return p.upsertReturns(ctx, st) }},
		{StepReturnImages, continueOnFailure, func(ctx context.Context) error { return p.uploadReturnImages(ctx, st) }},
	}

	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			continue
		}
		if s.policy == abortOnFailure {
			p.logger.Error("save aborted",
				slog.String("step", s.name),
				slog.Int64("record_id", st.recordID),
				slog.Any("error", err))
			return Result{}, &StepError{Step: s.name, Err: err}
		}
		p.logger.Warn("best-effort step failed, continuing",
			slog.String("step", s.name),
			slog.Int64("record_id", st.recordID),
			slog.Any("error", err))
	}

	return Result{
		Record:        st.record,
		CostItems:     st.costItems,
		Shipments:     st.shipments,
		Returns:       st.returns,
		ImageFailures: st.failures,
	}, nil
}

type runState struct {
	recordID int64
	level    gateway.ActorLevel
	scalars  draft.Scalars

	record    gateway.RawRecord
	costItems []draft.CostItem
	shipments []draft.Shipment
	returns   []draft.ReturnItem
	failures  []ImageFailure
}

func (p *Pipeline) updateScalars(ctx context.Context, st *runState) error {
	record, err := p.gw.UpdateScalarFields(ctx, st.recordID, st.scalars.WirePatch())
	if err != nil {
		return err
	}
	st.record = record
	return nil
}

func (p *Pipeline) replaceCostItems(ctx context.Context, st *runState) error {
	return p.gw.ReplaceCostItems(ctx, st.recordID, costItemPayloads(st.costItems, st.level), st.level)
}

func (p *Pipeline) upsertShipments(ctx context.Context, st *runState) error {
	payloads := make([]gateway.ShipmentPayload, 0, len(st.shipments))
	for _, s := range st.shipments {
		payloads = append(payloads, gateway.ShipmentPayload{
			ID:         s.ID.String(),
			Date:       normalize.WireDate(s.Date),
			Quantity:   s.Quantity,
			Courier:    s.Courier,
			TrackingNo: s.TrackingNo,
			Note:       s.Note,
		})
	}
	ids, err := p.gw.UpsertShipments(ctx, st.recordID, payloads)
	if err != nil {
		return err
	}
	if len(ids) != len(st.shipments) {
		return fmt.Errorf("server returned %d ids for %d shipments", len(ids), len(st.shipments))
	}
	// Reconciliation point: the server does not know temporary IDs, so the
	// mapping is positional.
	for i := range st.shipments {
		st.shipments[i].ID = draft.PersistedID(ids[i])
	}
	return nil
}

func (p *Pipeline) upsertReturns(ctx context.Context, st *runState) error {
	payloads := make([]gateway.ReturnPayload, 0, len(st.returns))
	for _, r := range st.returns {
		payloads = append(payloads, gateway.ReturnPayload{
			ID:       r.ID.String(),
			Date:     normalize.WireDate(r.Date),
			Quantity: r.Quantity,
			Reason:   r.Reason,
			Note:     r.Note,
		})
	}
	ids, err := p.gw.UpsertReturns(ctx, st.recordID, payloads)
	if err != nil {
		return err
	}
	if len(ids) != len(st.returns) {
		return fmt.Errorf("server returned %d ids for %d returns", len(ids), len(st.returns))
	}
	for i := range st.returns {
		st.returns[i].ID = draft.PersistedID(ids[i])
	}
	return nil
}

// uploadShipmentImages uploads per item concurrently; each upload is
// independent and order-irrelevant, but the whole step is awaited so a late
// failure cannot race baseline adoption. Failures clear nothing: the item
// keeps its pending images and stays unsynced.
func (p *Pipeline) uploadShipmentImages(ctx context.Context, st *runState) error {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]error, len(st.shipments))
	for i := range st.shipments {
		if !st.shipments[i].Unsynced() {
			continue
		}
		g.Go(func() error {
			results[i] = p.uploadFor(ctx, st, gateway.ImageKindShipment, st.shipments[i].ID, st.shipments[i].PendingImages)
			return nil
		})
	}
	_ = g.Wait()
	failed := 0
	for i, err := range results {
		if err == nil {
			if st.shipments[i].Unsynced() {
				st.shipments[i].PendingImages = nil
			}
			continue
		}
		failed++
		st.failures = append(st.failures, ImageFailure{Kind: gateway.ImageKindShipment, RelatedID: st.shipments[i].ID, Err: err})
	}
	if failed > 0 {
		return fmt.Errorf("%d shipment image upload(s) failed", failed)
	}
	return nil
}

func (p *Pipeline) uploadReturnImages(ctx context.Context, st *runState) error {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]error, len(st.returns))
	for i := range st.returns {
		if !st.returns[i].Unsynced() {
			continue
		}
		g.Go(func() error {
			results[i] = p.uploadFor(ctx, st, gateway.ImageKindReturn, st.returns[i].ID, st.returns[i].PendingImages)
			return nil
		})
	}
	_ = g.Wait()
	failed := 0
	for i, err := range results {
		if err == nil {
			if st.returns[i].Unsynced() {
				st.returns[i].PendingImages = nil
			}
			continue
		}
		failed++
		st.failures = append(st.failures, ImageFailure{Kind: gateway.ImageKindReturn, RelatedID: st.returns[i].ID, Err: err})
	}
	if failed > 0 {
		return fmt.Errorf("%d return image upload(s) failed", failed)
	}
	return nil
}

func (p *Pipeline) uploadFor(ctx context.Context, st *runState, kind gateway.ImageKind, id draft.ID, pending []draft.LocalImage) error {
	server, ok := id.Server()
	if !ok {
		// Cannot happen after reconciliation; guard anyway so an upload can
		// never target a temporary ID.
		return fmt.Errorf("item %s has no server id", id)
	}
	files := make([]gateway.ImageFile, 0, len(pending))
	for _, img := range pending {
		files = append(files, gateway.ImageFile{Name: img.Name, MIME: img.MIME, URI: img.URI})
	}
	return p.gw.UploadImages(ctx, st.recordID, kind, server, files)
}

