// Package flow wires concrete handlers into the fixed allocation sequence
// and executes them. The flow owns no business logic: it threads each
// handler's output into the next step, merges diagnostic contexts, and
// surfaces either the stored result or the first fatal error.
package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipalloc/core/alloc"
	"shipalloc/core/domain"
	"shipalloc/core/handler"
	"shipalloc/internal/errors"
	"shipalloc/internal/logging"
)

// Phase represents the execution phases of one run
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseParsingWarehouses
	PhaseParsingInventory
	PhaseParsingShipInventory
	PhaseAllocating
	PhaseStoring
	PhaseDone
	PhaseFailed
)

// String returns the phase name
func (p Phase) String() string {
	names := []string{
		"uninitialized", "parsing_warehouses", "parsing_inventory",
		"parsing_ship_inventory", "allocating", "storing", "done", "failed",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// Stage names used for context attribution
const (
	StageWarehouses    = "warehouses"
	StageInventory     = "inventory"
	StageShipInventory = "ship_inventory"
)

// Flow executes one allocation run over injected handlers
type Flow struct {
	warehouses handler.WarehouseParser
	inventory  handler.InventoryParser
	ship       handler.ShipInventoryParser
	allocator  alloc.Allocator
	storer     handler.InventoryStorer
}

// Result is the outcome of one run. The context is always populated, even
// on failure; Inventory is only valid when Phase is PhaseDone.
type Result struct {
	// RunID uniquely identifies this run
	RunID uuid.UUID

	// Phase is the terminal phase: PhaseDone or PhaseFailed
	Phase Phase

	// FailedPhase is the phase a fatal error occurred in, if any
	FailedPhase Phase

	// Inventory is the allocated, stored inventory
	Inventory domain.Inventory

	// Context carries the aggregated row-level diagnostics
	Context *handler.FlowContext

	// Strategy is the allocator that produced the result
	Strategy string

	// WarehouseCount is the number of warehouses in the snapshot
	WarehouseCount int

	// Duration is the wall-clock run time
	Duration time.Duration
}

// Fingerprint returns a stable digest of the resulting inventory
func (r *Result) Fingerprint() string {
	return r.Inventory.Fingerprint()
}

// New builds a flow from concrete handler instances. Every handler is
// required; selection happens here, by explicit injection.
func New(wp handler.WarehouseParser, ip handler.InventoryParser, sp handler.ShipInventoryParser, al alloc.Allocator, st handler.InventoryStorer) (*Flow, error) {
	if wp == nil || ip == nil || sp == nil || al == nil || st == nil {
		return nil, errors.New(errors.TypeConfig, "flow requires all five handlers")
	}
	return &Flow{
		warehouses: wp,
		inventory:  ip,
		ship:       sp,
		allocator:  al,
		storer:     st,
	}, nil
}

// Run executes the handler sequence once. It is synchronous and
// single-threaded: each step completes before the next begins, so the
// allocation observes one consistent capacity snapshot. Retry, timeout and
// cancellation policy belong to the handler implementations and the
// caller's context.
func (f *Flow) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:    uuid.New(),
		Context:  handler.NewFlowContext(),
		Strategy: f.allocator.Name(),
	}
	log := logging.With(zap.String("run_id", result.RunID.String()))

	fail := func(phase Phase, err error) (*Result, error) {
		result.Phase = PhaseFailed
		result.FailedPhase = phase
		result.Duration = time.Since(start)
		log.Error("flow failed",
			zap.String("phase", phase.String()),
			zap.Error(err))
		return result, err
	}

	log.Info("flow starting", zap.String("strategy", result.Strategy))

	pctx := handler.NewParserContext()
	warehouses, err := f.warehouses.ParseWarehouses(ctx, pctx)
	result.Context.Merge(StageWarehouses, pctx)
	if err != nil {
		return fail(PhaseParsingWarehouses, errors.Wrap(errors.TypeSource, "parsing warehouses", err))
	}
	result.WarehouseCount = len(warehouses)

	pctx = handler.NewParserContext()
	current, err := f.inventory.ParseInventory(ctx, pctx)
	result.Context.Merge(StageInventory, pctx)
	if err != nil {
		return fail(PhaseParsingInventory, errors.Wrap(errors.TypeSource, "parsing inventory", err))
	}

	pctx = handler.NewParserContext()
	ship, err := f.ship.ParseShipInventory(ctx, pctx)
	result.Context.Merge(StageShipInventory, pctx)
	if err != nil {
		return fail(PhaseParsingShipInventory, errors.Wrap(errors.TypeSource, "parsing ship inventory", err))
	}

	log.Debug("snapshot parsed",
		zap.Int("warehouses", len(warehouses)),
		zap.Int("inventory_items", current.Len()),
		zap.Int("ship_commodities", ship.Len()),
		zap.Int("row_failures", result.Context.Len()))

	allocated, err := f.allocator.Allocate(warehouses, current, ship)
	if err != nil {
		return fail(PhaseAllocating, errors.Wrap(errors.TypeCapacity, "allocating", err))
	}

	// Storing happens exactly once, only after allocation fully succeeds.
	if err := f.storer.StoreInventory(ctx, allocated); err != nil {
		return fail(PhaseStoring, errors.Wrap(errors.TypeStorage, "storing inventory", err))
	}

	result.Phase = PhaseDone
	result.Inventory = allocated
	result.Duration = time.Since(start)
	log.Info("flow done",
		zap.Int("inventory_items", allocated.Len()),
		zap.Int("row_failures", result.Context.Len()),
		zap.Duration("duration", result.Duration))
	return result, nil
}
