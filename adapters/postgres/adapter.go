// Package postgres provides Postgres-backed handler implementations over
// a pgx connection pool.
//
// Expected tables:
//
//	warehouse_capacities(warehouse_id int, commodity text, amount numeric, unit text)
//	inventory_items(warehouse_id int, commodity text, amount numeric, unit text)
//	ship_inventory(commodity text, amount numeric, unit text)
//
// Rows that do not map onto the domain (unknown commodity or unit,
// negative amount, duplicate key) are skipped and recorded in the parser
// context. Query failures are fatal.
package postgres

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"shipalloc/core/domain"
	"shipalloc/core/handler"
	"shipalloc/internal/errors"
)

// NewPool opens a pgx pool from the DSN in the named environment variable
func NewPool(ctx context.Context, dsnEnv string) (*pgxpool.Pool, error) {
	connStr := os.Getenv(dsnEnv)
	if connStr == "" {
		return nil, errors.Newf(errors.TypeConfig, "%s environment variable not set", dsnEnv)
	}

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "unable to parse %s", dsnEnv)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.TypeSource, "unable to create connection pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.TypeSource, "unable to ping database", err)
	}

	return pool, nil
}

type rawRow struct {
	warehouseID int
	commodity   string
	amount      decimal.Decimal
	unit        string
}

func (r rawRow) String() string {
	return fmt.Sprintf("%d,%s,%s,%s", r.warehouseID, r.commodity, r.amount, r.unit)
}

func (r rawRow) toDomain() (domain.ItemKey, domain.Quantity, error) {
	commodity, err := domain.ParseCommodity(r.commodity)
	if err != nil {
		return domain.ItemKey{}, domain.Quantity{}, err
	}
	unit, err := domain.ParseUnit(r.unit)
	if err != nil {
		return domain.ItemKey{}, domain.Quantity{}, err
	}
	q, err := domain.NewQuantity(unit, r.amount)
	if err != nil {
		return domain.ItemKey{}, domain.Quantity{}, err
	}
	return domain.ItemKey{WarehouseID: r.warehouseID, Commodity: commodity}, q, nil
}

// Source reads warehouse, inventory and ship rows from Postgres
type Source struct {
	pool *pgxpool.Pool
}

// NewSource creates a source over the given pool
func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

func (s *Source) queryRows(ctx context.Context, query string) ([]rawRow, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.TypeSource, "query failed", err)
	}
	defer rows.Close()

	var out []rawRow
	for rows.Next() {
		var r rawRow
		if err := rows.Scan(&r.warehouseID, &r.commodity, &r.amount, &r.unit); err != nil {
			return nil, errors.Wrap(errors.TypeSource, "failed to scan row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.TypeSource, "row iteration failed", err)
	}
	return out, nil
}

// ParseWarehouses implements handler.WarehouseParser
func (s *Source) ParseWarehouses(ctx context.Context, pctx *handler.ParserContext) ([]domain.Warehouse, error) {
	raw, err := s.queryRows(ctx, `
		SELECT warehouse_id, commodity, amount, unit
		FROM warehouse_capacities
		ORDER BY warehouse_id, commodity
	`)
	if err != nil {
		return nil, err
	}

	entries := make(map[int][]domain.CapacityEntry)
	seen := make(map[domain.ItemKey]bool)
	var ids []int
	for _, r := range raw {
		key, q, err := r.toDomain()
		if err != nil {
			pctx.NoteFailure(r.String(), err.Error())
			continue
		}
		if seen[key] {
			pctx.NoteFailure(r.String(), "duplicate capacity entry for "+key.String())
			continue
		}
		seen[key] = true
		if _, ok := entries[key.WarehouseID]; !ok {
			ids = append(ids, key.WarehouseID)
		}
		entries[key.WarehouseID] = append(entries[key.WarehouseID],
			domain.CapacityEntry{Commodity: key.Commodity, Capacity: q})
	}

	warehouses := make([]domain.Warehouse, 0, len(ids))
	for _, id := range ids {
		w, err := domain.NewWarehouse(id, entries[id])
		if err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, nil
}

// ParseInventory implements handler.InventoryParser
func (s *Source) ParseInventory(ctx context.Context, pctx *handler.ParserContext) (domain.Inventory, error) {
	raw, err := s.queryRows(ctx, `
		SELECT warehouse_id, commodity, amount, unit
		FROM inventory_items
		ORDER BY warehouse_id, commodity
	`)
	if err != nil {
		return domain.Inventory{}, err
	}

	inv := domain.NewInventory()
	for _, r := range raw {
		key, q, err := r.toDomain()
		if err != nil {
			pctx.NoteFailure(r.String(), err.Error())
			continue
		}
		if _, exists := inv.Get(key); exists {
			pctx.NoteFailure(r.String(), "duplicate inventory entry for "+key.String())
			continue
		}
		inv.Set(key, q)
	}
	return inv, nil
}

// ParseShipInventory implements handler.ShipInventoryParser
func (s *Source) ParseShipInventory(ctx context.Context, pctx *handler.ParserContext) (domain.ShipInventory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT commodity, amount, unit
		FROM ship_inventory
		ORDER BY commodity
	`)
	if err != nil {
		return domain.ShipInventory{}, errors.Wrap(errors.TypeSource, "query failed", err)
	}
	defer rows.Close()

	ship := domain.NewShipInventory()
	for rows.Next() {
		var commodityRaw, unitRaw string
		var amount decimal.Decimal
		if err := rows.Scan(&commodityRaw, &amount, &unitRaw); err != nil {
			return domain.ShipInventory{}, errors.Wrap(errors.TypeSource, "failed to scan row", err)
		}
		raw := fmt.Sprintf("%s,%s,%s", commodityRaw, amount, unitRaw)

		commodity, err := domain.ParseCommodity(commodityRaw)
		if err != nil {
			pctx.NoteFailure(raw, err.Error())
			continue
		}
		unit, err := domain.ParseUnit(unitRaw)
		if err != nil {
			pctx.NoteFailure(raw, err.Error())
			continue
		}
		q, err := domain.NewQuantity(unit, amount)
		if err != nil {
			pctx.NoteFailure(raw, err.Error())
			continue
		}
		if existing, ok := ship.Get(commodity); ok {
			sum, err := existing.Add(q)
			if err != nil {
				pctx.NoteFailure(raw, err.Error())
				continue
			}
			ship.Set(commodity, sum)
			continue
		}
		ship.Set(commodity, q)
	}
	if err := rows.Err(); err != nil {
		return domain.ShipInventory{}, errors.Wrap(errors.TypeSource, "row iteration failed", err)
	}
	return ship, nil
}

// Sink writes the allocated inventory as a full snapshot in one
// transaction: the previous snapshot is deleted and the new rows inserted,
// so readers never observe a partial write.
type Sink struct {
	pool *pgxpool.Pool
}

// NewSink creates a sink over the given pool
func NewSink(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool}
}

// StoreInventory implements handler.InventoryStorer
func (s *Sink) StoreInventory(ctx context.Context, inv domain.Inventory) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(errors.TypeStorage, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM inventory_items"); err != nil {
		return errors.Wrap(errors.TypeStorage, "failed to clear previous snapshot", err)
	}

	for _, item := range inv.Items() {
		_, err := tx.Exec(ctx, `
			INSERT INTO inventory_items (warehouse_id, commodity, amount, unit)
			VALUES ($1, $2, $3, $4)
		`, item.Key.WarehouseID, item.Key.Commodity.String(),
			item.Quantity.Amount(), item.Quantity.Unit().String())
		if err != nil {
			return errors.Wrapf(errors.TypeStorage, err, "failed to insert %s", item.Key)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(errors.TypeStorage, "failed to commit snapshot", err)
	}
	return nil
}
