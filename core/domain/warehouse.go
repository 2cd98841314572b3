package domain

import "strconv"

// CapacityEntry pairs a commodity with the capacity one warehouse declares
// for it
type CapacityEntry struct {
	Commodity Commodity
	Capacity  Quantity
}

// Warehouse is an identified storage location with at most one capacity
// entry per commodity. Immutable after construction.
type Warehouse struct {
	id      int
	entries []CapacityEntry
}

// NewWarehouse builds a warehouse, rejecting duplicate commodity entries
func NewWarehouse(id int, entries []CapacityEntry) (Warehouse, error) {
	seen := make(map[Commodity]bool, len(entries))
	for _, e := range entries {
		if seen[e.Commodity] {
			return Warehouse{}, &ValidationError{
				Field:  "capacities",
				Value:  e.Commodity.String(),
				Reason: "duplicate capacity entry for commodity in warehouse " + strconv.Itoa(id),
			}
		}
		seen[e.Commodity] = true
	}
	copied := make([]CapacityEntry, len(entries))
	copy(copied, entries)
	return Warehouse{id: id, entries: copied}, nil
}

// ID returns the warehouse identifier
func (w Warehouse) ID() int {
	return w.id
}

// Capacities returns the declared capacity entries in declaration order
func (w Warehouse) Capacities() []CapacityEntry {
	out := make([]CapacityEntry, len(w.entries))
	copy(out, w.entries)
	return out
}

// CapacityFor returns the declared capacity for a commodity, if any
func (w Warehouse) CapacityFor(c Commodity) (Quantity, bool) {
	for _, e := range w.entries {
		if e.Commodity == c {
			return e.Capacity, true
		}
	}
	return Quantity{}, false
}
