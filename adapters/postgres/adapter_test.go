package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"shipalloc/core/domain"
	"shipalloc/core/handler"
	ierrors "shipalloc/internal/errors"
)

const testDSNEnv = "SHIPALLOC_TEST_DATABASE_URL"

// setupTestDB connects to the database named by SHIPALLOC_TEST_DATABASE_URL
// and resets the pipeline tables. Tests are skipped when the variable is
// unset so the suite runs without a database.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv(testDSNEnv) == "" {
		t.Skipf("%s not set, skipping integration test", testDSNEnv)
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, testDSNEnv)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS warehouse_capacities (
			warehouse_id INT NOT NULL,
			commodity TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			unit TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			warehouse_id INT NOT NULL,
			commodity TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			unit TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ship_inventory (
			commodity TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			unit TEXT NOT NULL
		)`,
		`TRUNCATE warehouse_capacities, inventory_items, ship_inventory`,
	}
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	return pool
}

func TestNewPoolMissingEnv(t *testing.T) {
	t.Setenv("SHIPALLOC_UNSET_DSN", "")
	_, err := NewPool(context.Background(), "SHIPALLOC_UNSET_DSN")
	if err == nil {
		t.Fatal("expected error for unset DSN variable")
	}
	if !ierrors.IsType(err, ierrors.TypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestSourceParsesSnapshot(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	seed := []struct {
		query string
		args  []any
	}{
		{"INSERT INTO warehouse_capacities VALUES ($1, $2, $3, $4)", []any{1, "CORN", "10000", "bushel"}},
		{"INSERT INTO warehouse_capacities VALUES ($1, $2, $3, $4)", []any{1, "WHEAT", "500", "tonne"}},
		{"INSERT INTO warehouse_capacities VALUES ($1, $2, $3, $4)", []any{2, "GOLD", "100", "tonne"}},
		{"INSERT INTO inventory_items VALUES ($1, $2, $3, $4)", []any{1, "CORN", "1000", "bushel"}},
		{"INSERT INTO ship_inventory VALUES ($1, $2, $3)", []any{"CORN", "3000", "bushel"}},
		{"INSERT INTO ship_inventory VALUES ($1, $2, $3)", []any{"CORN", "2000", "bushel"}},
	}
	for _, s := range seed {
		if _, err := pool.Exec(ctx, s.query, s.args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	src := NewSource(pool)

	pctx := handler.NewParserContext()
	warehouses, err := src.ParseWarehouses(ctx, pctx)
	if err != nil {
		t.Fatalf("ParseWarehouses: %v", err)
	}
	if len(warehouses) != 1 {
		t.Fatalf("expected 1 warehouse, got %d", len(warehouses))
	}
	if pctx.Len() != 1 {
		t.Errorf("expected the GOLD row to be recorded, got %d failures", pctx.Len())
	}
	cap, ok := warehouses[0].CapacityFor(domain.CommodityWheat)
	if !ok || !cap.Equal(domain.MustQuantity(domain.UnitTonne, "500")) {
		t.Errorf("expected 500 tonne wheat capacity, got %s", cap)
	}

	pctx = handler.NewParserContext()
	inv, err := src.ParseInventory(ctx, pctx)
	if err != nil {
		t.Fatalf("ParseInventory: %v", err)
	}
	got, _ := inv.Get(domain.ItemKey{WarehouseID: 1, Commodity: domain.CommodityCorn})
	if !got.Equal(domain.MustQuantity(domain.UnitBushel, "1000")) {
		t.Errorf("expected 1000 bushel, got %s", got)
	}

	pctx = handler.NewParserContext()
	ship, err := src.ParseShipInventory(ctx, pctx)
	if err != nil {
		t.Fatalf("ParseShipInventory: %v", err)
	}
	corn, _ := ship.Get(domain.CommodityCorn)
	if !corn.Equal(domain.MustQuantity(domain.UnitBushel, "5000")) {
		t.Errorf("repeated ship rows must accumulate, got %s", corn)
	}
}

func TestSinkReplacesSnapshot(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	if _, err := pool.Exec(ctx,
		"INSERT INTO inventory_items VALUES ($1, $2, $3, $4)",
		9, "OIL", "1", "litre"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	inv := domain.NewInventory()
	inv.Set(domain.ItemKey{WarehouseID: 1, Commodity: domain.CommodityCorn}, domain.MustQuantity(domain.UnitBushel, "5000"))
	inv.Set(domain.ItemKey{WarehouseID: 2, Commodity: domain.CommodityOil}, domain.MustQuantity(domain.UnitLitre, "317.9746"))

	if err := NewSink(pool).StoreInventory(ctx, inv); err != nil {
		t.Fatalf("StoreInventory: %v", err)
	}

	got, err := NewSource(pool).ParseInventory(ctx, handler.NewParserContext())
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected the old snapshot to be replaced, got %d rows", got.Len())
	}
	if _, ok := got.Get(domain.ItemKey{WarehouseID: 9, Commodity: domain.CommodityOil}); ok {
		t.Error("stale row survived the snapshot write")
	}
	oil, _ := got.Get(domain.ItemKey{WarehouseID: 2, Commodity: domain.CommodityOil})
	if !oil.Equal(domain.MustQuantity(domain.UnitLitre, "317.9746")) {
		t.Errorf("expected 317.9746 litre, got %s", oil)
	}
}
