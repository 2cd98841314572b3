package domain

import (
	"fmt"

	"shipalloc/core/determinism"
)

// ItemKey addresses one stored quantity: a warehouse holding a commodity
type ItemKey struct {
	WarehouseID int
	Commodity   Commodity
}

// String returns e.g. "1/CORN"
func (k ItemKey) String() string {
	return fmt.Sprintf("%d/%s", k.WarehouseID, k.Commodity)
}

func itemKeyOrder(k ItemKey) string {
	return fmt.Sprintf("%012d|%s", k.WarehouseID, k.Commodity)
}

// InventoryItem is one (warehouse, commodity, quantity) row of an inventory
type InventoryItem struct {
	Key      ItemKey
	Quantity Quantity
}

// Inventory maps (warehouse, commodity) to a stored quantity with
// deterministic iteration order (ascending warehouse ID, then commodity).
// The pipeline never rewrites a loaded inventory in place: allocation
// clones its input and returns the clone.
type Inventory struct {
	items *determinism.StableMap[ItemKey, Quantity]
}

// NewInventory creates an empty inventory
func NewInventory() Inventory {
	return Inventory{items: determinism.NewStableMapWithKeyFunc[ItemKey, Quantity](itemKeyOrder)}
}

// Set records the stored quantity for a key, replacing any previous value
func (inv Inventory) Set(key ItemKey, q Quantity) {
	inv.items.Set(key, q)
}

// Get returns the stored quantity for a key
func (inv Inventory) Get(key ItemKey) (Quantity, bool) {
	return inv.items.Get(key)
}

// Len returns the number of stored entries
func (inv Inventory) Len() int {
	return inv.items.Len()
}

// Items returns all entries in stable order
func (inv Inventory) Items() []InventoryItem {
	out := make([]InventoryItem, 0, inv.items.Len())
	inv.items.Range(func(k ItemKey, q Quantity) bool {
		out = append(out, InventoryItem{Key: k, Quantity: q})
		return true
	})
	return out
}

// Clone returns an independent copy
func (inv Inventory) Clone() Inventory {
	return Inventory{items: inv.items.Clone()}
}

// Fingerprint returns a stable digest of the inventory contents
func (inv Inventory) Fingerprint() string {
	parts := make([]string, 0, inv.items.Len())
	inv.items.Range(func(k ItemKey, q Quantity) bool {
		parts = append(parts, k.String()+"="+q.String())
		return true
	})
	return determinism.Fingerprint(parts...)
}

// ShipInventory maps a commodity to the incoming quantity awaiting
// allocation. Produced fresh per run and consumed once.
type ShipInventory struct {
	items *determinism.StableMap[Commodity, Quantity]
}

// NewShipInventory creates an empty ship inventory
func NewShipInventory() ShipInventory {
	return ShipInventory{items: determinism.NewStableMap[Commodity, Quantity]()}
}

// Set records the incoming quantity for a commodity
func (s ShipInventory) Set(c Commodity, q Quantity) {
	s.items.Set(c, q)
}

// Get returns the incoming quantity for a commodity
func (s ShipInventory) Get(c Commodity) (Quantity, bool) {
	return s.items.Get(c)
}

// Len returns the number of commodities awaiting allocation
func (s ShipInventory) Len() int {
	return s.items.Len()
}

// Commodities returns the commodities in stable order
func (s ShipInventory) Commodities() []Commodity {
	return s.items.Keys()
}
