// Package alloc implements the pluggable allocation strategies. An
// allocator is a pure function over its inputs: no I/O, no mutation of the
// current inventory, a fresh inventory out. Quantities of one commodity
// sourced in different units are converted through the unit registry before
// they are compared or summed.
package alloc

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"shipalloc/core/determinism"
	"shipalloc/core/domain"
	"shipalloc/core/units"
)

// Allocator distributes a ship's incoming inventory across warehouses
type Allocator interface {
	// Name returns the registered strategy name
	Name() string

	// Allocate returns a fresh inventory holding current plus the incoming
	// quantities. Inputs are never mutated.
	Allocate(warehouses []domain.Warehouse, current domain.Inventory, ship domain.ShipInventory) (domain.Inventory, error)
}

// Shortfall is the unallocated remainder for one commodity
type Shortfall struct {
	Commodity domain.Commodity
	Remainder domain.Quantity
}

// InsufficientCapacityError reports that incoming quantity remained after
// exhausting all warehouses. It carries the remainders so the caller can
// decide on an overflow policy; this package does not decide one.
type InsufficientCapacityError struct {
	Strategy   string
	Shortfalls []Shortfall
}

// Error implements the error interface
func (e *InsufficientCapacityError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("%s: %s unallocated", s.Commodity, s.Remainder)
	}
	return fmt.Sprintf("insufficient capacity (%s): %s", e.Strategy, strings.Join(parts, "; "))
}

// sortedByID returns the warehouses in ascending identifier order, the
// deterministic visit order shared by all strategies.
func sortedByID(warehouses []domain.Warehouse) []domain.Warehouse {
	out := make([]domain.Warehouse, len(warehouses))
	copy(out, warehouses)
	determinism.SortSlice(out, func(a, b domain.Warehouse) bool {
		return a.ID() < b.ID()
	})
	return out
}

// storedAmount returns the amount already stored under key, expressed in
// the commodity's canonical unit. Absent keys count as zero.
func storedAmount(reg *units.Registry, inv domain.Inventory, key domain.ItemKey, canon domain.Unit) (decimal.Decimal, error) {
	q, ok := inv.Get(key)
	if !ok {
		return decimal.Zero, nil
	}
	converted, err := reg.Convert(key.Commodity, q, canon)
	if err != nil {
		return decimal.Zero, err
	}
	return converted.Amount(), nil
}
