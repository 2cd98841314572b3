// Package handler defines the single-capability contracts the flow wires
// together. Contracts name only the abstract capability, never the medium:
// a parser may read CSV, Postgres or anything else without the orchestrator
// knowing. NO allocation logic belongs here.
package handler

import (
	"context"

	"shipalloc/core/domain"
)

// WarehouseParser produces the warehouse snapshot for one run.
// Row-level malformed data is skipped and recorded in the ParserContext;
// the returned error is reserved for a wholly unreadable source.
type WarehouseParser interface {
	ParseWarehouses(ctx context.Context, pctx *ParserContext) ([]domain.Warehouse, error)
}

// InventoryParser produces the current inventory snapshot for one run
type InventoryParser interface {
	ParseInventory(ctx context.Context, pctx *ParserContext) (domain.Inventory, error)
}

// ShipInventoryParser produces the incoming ship inventory for one run
type ShipInventoryParser interface {
	ParseShipInventory(ctx context.Context, pctx *ParserContext) (domain.ShipInventory, error)
}

// InventoryStorer persists the allocated inventory to an external sink.
// A write failure is fatal; no partial-write recovery is promised here —
// transactionality is the sink's concern.
type InventoryStorer interface {
	StoreInventory(ctx context.Context, inv domain.Inventory) error
}
