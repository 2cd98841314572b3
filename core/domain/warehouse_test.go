package domain

import (
	"errors"
	"testing"
)

func TestNewWarehouseRejectsDuplicateCommodity(t *testing.T) {
	_, err := NewWarehouse(1, []CapacityEntry{
		{Commodity: CommodityCorn, Capacity: MustQuantity(UnitBushel, "10000")},
		{Commodity: CommodityCorn, Capacity: MustQuantity(UnitBushel, "500")},
	})
	if err == nil {
		t.Fatal("expected error for duplicate capacity entries")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestWarehouseCapacityFor(t *testing.T) {
	w, err := NewWarehouse(7, []CapacityEntry{
		{Commodity: CommodityCorn, Capacity: MustQuantity(UnitBushel, "10000")},
		{Commodity: CommodityOil, Capacity: MustQuantity(UnitLitre, "2000")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.ID() != 7 {
		t.Errorf("expected id 7, got %d", w.ID())
	}
	q, ok := w.CapacityFor(CommodityOil)
	if !ok {
		t.Fatal("expected oil capacity")
	}
	if !q.Equal(MustQuantity(UnitLitre, "2000")) {
		t.Errorf("expected 2000 litre, got %s", q)
	}
	if _, ok := w.CapacityFor(CommodityWheat); ok {
		t.Error("expected no wheat capacity")
	}
}

func TestWarehouseEntriesAreCopied(t *testing.T) {
	entries := []CapacityEntry{
		{Commodity: CommodityCorn, Capacity: MustQuantity(UnitBushel, "100")},
	}
	w, err := NewWarehouse(1, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's slice must not affect the warehouse
	entries[0].Commodity = CommodityOil
	if _, ok := w.CapacityFor(CommodityCorn); !ok {
		t.Error("warehouse shares backing array with caller slice")
	}
}
