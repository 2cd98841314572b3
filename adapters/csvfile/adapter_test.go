package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shipalloc/core/domain"
	"shipalloc/core/handler"
	ierrors "shipalloc/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestWarehouseSourceParsesGroupedRows(t *testing.T) {
	path := writeFile(t, "warehouses.csv",
		"warehouse_id,commodity,amount,unit\n"+
			"1,CORN,10000,bushel\n"+
			"1,WHEAT,500,tonne\n"+
			"2,OIL,2000,litre\n")

	pctx := handler.NewParserContext()
	warehouses, err := NewWarehouseSource(path).ParseWarehouses(context.Background(), pctx)
	if err != nil {
		t.Fatalf("ParseWarehouses: %v", err)
	}
	if pctx.Len() != 0 {
		t.Errorf("unexpected failures: %+v", pctx.Failures())
	}
	if len(warehouses) != 2 {
		t.Fatalf("expected 2 warehouses, got %d", len(warehouses))
	}
	if warehouses[0].ID() != 1 || warehouses[1].ID() != 2 {
		t.Errorf("unexpected warehouse ids: %d, %d", warehouses[0].ID(), warehouses[1].ID())
	}

	cap, ok := warehouses[0].CapacityFor(domain.CommodityWheat)
	if !ok || !cap.Equal(domain.MustQuantity(domain.UnitTonne, "500")) {
		t.Errorf("expected 500 tonne wheat capacity, got %s", cap)
	}
	if _, ok := warehouses[1].CapacityFor(domain.CommodityCorn); ok {
		t.Error("warehouse 2 must not declare corn capacity")
	}
}

func TestWarehouseSourceRecordsBadRows(t *testing.T) {
	path := writeFile(t, "warehouses.csv",
		"1,CORN,10000,bushel\n"+
			"2,GOLD,100,tonne\n"+
			"x,CORN,100,bushel\n"+
			"3,WHEAT,abc,tonne\n"+
			"4,OIL,100,furlong\n"+
			"1,CORN,9999,bushel\n")

	pctx := handler.NewParserContext()
	warehouses, err := NewWarehouseSource(path).ParseWarehouses(context.Background(), pctx)
	if err != nil {
		t.Fatalf("bad rows must not be fatal: %v", err)
	}
	if len(warehouses) != 1 {
		t.Fatalf("expected only the valid warehouse, got %d", len(warehouses))
	}
	if pctx.Len() != 5 {
		t.Errorf("expected 5 recorded failures, got %d: %+v", pctx.Len(), pctx.Failures())
	}

	// The duplicate keeps the first value.
	cap, _ := warehouses[0].CapacityFor(domain.CommodityCorn)
	if !cap.Equal(domain.MustQuantity(domain.UnitBushel, "10000")) {
		t.Errorf("duplicate row must keep the first capacity, got %s", cap)
	}
}

func TestWarehouseSourceMissingFileIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")
	_, err := NewWarehouseSource(missing).ParseWarehouses(context.Background(), handler.NewParserContext())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !ierrors.IsType(err, ierrors.TypeSource) {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestInventorySourceParsesAndDeduplicates(t *testing.T) {
	path := writeFile(t, "inventory.csv",
		"warehouse_id,commodity,amount,unit\n"+
			"1,CORN,1000,bushel\n"+
			"1,CORN,2000,bushel\n"+
			"2,OIL,50.5,litre\n")

	pctx := handler.NewParserContext()
	inv, err := NewInventorySource(path).ParseInventory(context.Background(), pctx)
	if err != nil {
		t.Fatalf("ParseInventory: %v", err)
	}
	if inv.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", inv.Len())
	}
	if pctx.Len() != 1 {
		t.Errorf("expected the duplicate to be recorded, got %d failures", pctx.Len())
	}

	got, _ := inv.Get(domain.ItemKey{WarehouseID: 1, Commodity: domain.CommodityCorn})
	if !got.Equal(domain.MustQuantity(domain.UnitBushel, "1000")) {
		t.Errorf("duplicate row must keep the first quantity, got %s", got)
	}
}

func TestShipSourceAccumulatesRepeats(t *testing.T) {
	path := writeFile(t, "ship.csv",
		"commodity,amount,unit\n"+
			"CORN,3000,bushel\n"+
			"CORN,2000,bushel\n"+
			"OIL,10,barrel\n"+
			"OIL,5,litre\n")

	pctx := handler.NewParserContext()
	ship, err := NewShipSource(path).ParseShipInventory(context.Background(), pctx)
	if err != nil {
		t.Fatalf("ParseShipInventory: %v", err)
	}
	if ship.Len() != 2 {
		t.Fatalf("expected 2 commodities, got %d", ship.Len())
	}

	corn, _ := ship.Get(domain.CommodityCorn)
	if !corn.Equal(domain.MustQuantity(domain.UnitBushel, "5000")) {
		t.Errorf("expected 5000 bushel corn, got %s", corn)
	}

	// The barrel/litre repeat cannot be summed as-is and is recorded.
	if pctx.Len() != 1 {
		t.Errorf("expected 1 recorded failure for mixed units, got %d: %+v", pctx.Len(), pctx.Failures())
	}
	oil, _ := ship.Get(domain.CommodityOil)
	if !oil.Equal(domain.MustQuantity(domain.UnitBarrel, "10")) {
		t.Errorf("expected 10 barrel oil, got %s", oil)
	}
}

func TestSinkWriteAndReparseRoundTrip(t *testing.T) {
	inv := domain.NewInventory()
	inv.Set(domain.ItemKey{WarehouseID: 2, Commodity: domain.CommodityOil}, domain.MustQuantity(domain.UnitLitre, "317.9746"))
	inv.Set(domain.ItemKey{WarehouseID: 1, Commodity: domain.CommodityCorn}, domain.MustQuantity(domain.UnitBushel, "5000"))

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewSink(path).StoreInventory(context.Background(), inv); err != nil {
		t.Fatalf("StoreInventory: %v", err)
	}

	pctx := handler.NewParserContext()
	got, err := NewInventorySource(path).ParseInventory(context.Background(), pctx)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if pctx.Len() != 0 {
		t.Errorf("unexpected failures re-parsing own output: %+v", pctx.Failures())
	}
	if got.Fingerprint() != inv.Fingerprint() {
		t.Errorf("round trip changed the inventory: %s vs %s", got.Fingerprint(), inv.Fingerprint())
	}
}

func TestSinkOverwritesExistingFile(t *testing.T) {
	path := writeFile(t, "out.csv", "stale content\n")

	inv := domain.NewInventory()
	inv.Set(domain.ItemKey{WarehouseID: 1, Commodity: domain.CommodityWheat}, domain.MustQuantity(domain.UnitTonne, "12"))
	if err := NewSink(path).StoreInventory(context.Background(), inv); err != nil {
		t.Fatalf("StoreInventory: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "warehouse_id,commodity,amount,unit\n1,WHEAT,12,tonne\n"
	if string(data) != want {
		t.Errorf("unexpected file content:\n%s", data)
	}
}
