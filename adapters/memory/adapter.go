// Package memory provides in-memory handler implementations, used by
// tests and by callers embedding the pipeline with pre-built snapshots.
package memory

import (
	"context"
	"sync"

	"shipalloc/core/domain"
	"shipalloc/core/handler"
)

// Source serves pre-built snapshots. Any of the Err fields, when set,
// makes the corresponding parse call fail as an unreadable source.
type Source struct {
	Warehouses []domain.Warehouse
	Inventory  domain.Inventory
	Ship       domain.ShipInventory

	WarehouseErr error
	InventoryErr error
	ShipErr      error
}

// ParseWarehouses implements handler.WarehouseParser
func (s *Source) ParseWarehouses(ctx context.Context, pctx *handler.ParserContext) ([]domain.Warehouse, error) {
	if s.WarehouseErr != nil {
		return nil, s.WarehouseErr
	}
	out := make([]domain.Warehouse, len(s.Warehouses))
	copy(out, s.Warehouses)
	return out, nil
}

// ParseInventory implements handler.InventoryParser. An unset Inventory
// field reads as an empty snapshot.
func (s *Source) ParseInventory(ctx context.Context, pctx *handler.ParserContext) (domain.Inventory, error) {
	if s.InventoryErr != nil {
		return domain.Inventory{}, s.InventoryErr
	}
	if s.Inventory == (domain.Inventory{}) {
		return domain.NewInventory(), nil
	}
	return s.Inventory.Clone(), nil
}

// ParseShipInventory implements handler.ShipInventoryParser. An unset Ship
// field reads as an empty shipment.
func (s *Source) ParseShipInventory(ctx context.Context, pctx *handler.ParserContext) (domain.ShipInventory, error) {
	if s.ShipErr != nil {
		return domain.ShipInventory{}, s.ShipErr
	}
	if s.Ship == (domain.ShipInventory{}) {
		return domain.NewShipInventory(), nil
	}
	return s.Ship, nil
}

// Sink retains the last stored inventory
type Sink struct {
	mu     sync.Mutex
	stored *domain.Inventory
	writes int

	// Err, when set, makes every store call fail
	Err error
}

// StoreInventory implements handler.InventoryStorer
func (s *Sink) StoreInventory(ctx context.Context, inv domain.Inventory) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := inv.Clone()
	s.stored = &clone
	s.writes++
	return nil
}

// Stored returns the last stored inventory, if any
func (s *Sink) Stored() (domain.Inventory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		return domain.Inventory{}, false
	}
	return s.stored.Clone(), true
}

// Writes returns how many times the sink was written
func (s *Sink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
