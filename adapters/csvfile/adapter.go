// Package csvfile provides CSV-backed handler implementations.
//
// Row shapes:
//
//	warehouses: warehouse_id,commodity,amount,unit   (one row per capacity)
//	inventory:  warehouse_id,commodity,amount,unit
//	ship:       commodity,amount,unit
//
// A leading header row is tolerated. Malformed rows are skipped and
// recorded in the parser context; only an unreadable file is fatal.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"shipalloc/core/domain"
	"shipalloc/core/handler"
	"shipalloc/internal/errors"
)

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeSource, err, "cannot open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(errors.TypeSource, err, "cannot read %s", path)
	}
	return rows, nil
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "warehouse_id" || first == "commodity"
}

func rawLine(row []string) string {
	return strings.Join(row, ",")
}

// parseQuantityFields turns (amount, unit) fields into a Quantity
func parseQuantityFields(amountField, unitField string) (domain.Quantity, error) {
	unit, err := domain.ParseUnit(unitField)
	if err != nil {
		return domain.Quantity{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amountField))
	if err != nil {
		return domain.Quantity{}, fmt.Errorf("bad amount %q: %w", amountField, err)
	}
	return domain.NewQuantity(unit, amount)
}

// WarehouseSource parses warehouse capacity rows from a CSV file
type WarehouseSource struct {
	path string
}

// NewWarehouseSource creates a warehouse source for the given file
func NewWarehouseSource(path string) *WarehouseSource {
	return &WarehouseSource{path: path}
}

// ParseWarehouses implements handler.WarehouseParser
func (s *WarehouseSource) ParseWarehouses(ctx context.Context, pctx *handler.ParserContext) ([]domain.Warehouse, error) {
	rows, err := readRows(s.path)
	if err != nil {
		return nil, err
	}

	// Capacity rows are grouped by warehouse; duplicate (warehouse,
	// commodity) rows are row-level failures, keeping the first, so a
	// single bad row never poisons the whole warehouse.
	entries := make(map[int][]domain.CapacityEntry)
	seen := make(map[domain.ItemKey]bool)
	var ids []int

	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) != 4 {
			pctx.NoteFailure(rawLine(row), "expected 4 fields: warehouse_id,commodity,amount,unit")
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			pctx.NoteFailure(rawLine(row), "bad warehouse id: "+row[0])
			continue
		}
		commodity, err := domain.ParseCommodity(row[1])
		if err != nil {
			pctx.NoteFailure(rawLine(row), err.Error())
			continue
		}
		capacity, err := parseQuantityFields(row[2], row[3])
		if err != nil {
			pctx.NoteFailure(rawLine(row), err.Error())
			continue
		}
		key := domain.ItemKey{WarehouseID: id, Commodity: commodity}
		if seen[key] {
			pctx.NoteFailure(rawLine(row), "duplicate capacity entry for "+key.String())
			continue
		}
		seen[key] = true
		if _, ok := entries[id]; !ok {
			ids = append(ids, id)
		}
		entries[id] = append(entries[id], domain.CapacityEntry{Commodity: commodity, Capacity: capacity})
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

// InventorySource parses current inventory rows from a CSV file
type InventorySource struct {
	path string
}

// NewInventorySource creates an inventory source for the given file
func NewInventorySource(path string) *InventorySource {
	return &InventorySource{path: path}
}

// ParseInventory implements handler.InventoryParser
func (s *InventorySource) ParseInventory(ctx context.Context, pctx *handler.ParserContext) (domain.Inventory, error) {
	rows, err := readRows(s.path)
	if err != nil {
		return domain.Inventory{}, err
	}

	inv := domain.NewInventory()
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) != 4 {
			pctx.NoteFailure(rawLine(row), "expected 4 fields: warehouse_id,commodity,amount,unit")
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			pctx.NoteFailure(rawLine(row), "bad warehouse id: "+row[0])
			continue
		}
		commodity, err := domain.ParseCommodity(row[1])
		if err != nil {
			pctx.NoteFailure(rawLine(row), err.Error())
			continue
		}
		q, err := parseQuantityFields(row[2], row[3])
		if err != nil {
			pctx.NoteFailure(rawLine(row), err.Error())
			continue
		}
		key := domain.ItemKey{WarehouseID: id, Commodity: commodity}
		if _, exists := inv.Get(key); exists {
			pctx.NoteFailure(rawLine(row), "duplicate inventory entry for "+key.String())
			continue
		}
		inv.Set(key, q)
	}
	return inv, nil
}

// ShipSource parses incoming ship inventory rows from a CSV file
type ShipSource struct {
	path string
}

// NewShipSource creates a ship inventory source for the given file
func NewShipSource(path string) *ShipSource {
	return &ShipSource{path: path}
}

// ParseShipInventory implements handler.ShipInventoryParser
func (s *ShipSource) ParseShipInventory(ctx context.Context, pctx *handler.ParserContext) (domain.ShipInventory, error) {
	rows, err := readRows(s.path)
	if err != nil {
		return domain.ShipInventory{}, err
	}

	ship := domain.NewShipInventory()
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) != 3 {
			pctx.NoteFailure(rawLine(row), "expected 3 fields: commodity,amount,unit")
			continue
		}
		commodity, err := domain.ParseCommodity(row[0])
		if err != nil {
			pctx.NoteFailure(rawLine(row), err.Error())
			continue
		}
		q, err := parseQuantityFields(row[1], row[2])
		if err != nil {
			pctx.NoteFailure(rawLine(row), err.Error())
			continue
		}
		if existing, ok := ship.Get(commodity); ok {
			// Repeated commodity rows accumulate when the units agree.
			sum, err := existing.Add(q)
			if err != nil {
				pctx.NoteFailure(rawLine(row), err.Error())
				continue
			}
			ship.Set(commodity, sum)
			continue
		}
		ship.Set(commodity, q)
	}
	return ship, nil
}

// Sink writes the allocated inventory to a CSV file. The write is atomic:
// a temp file in the same directory is renamed over the target.
type Sink struct {
	path string
}

// NewSink creates a CSV sink for the given file
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// StoreInventory implements handler.InventoryStorer
func (s *Sink) StoreInventory(ctx context.Context, inv domain.Inventory) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".inventory-*.csv")
	if err != nil {
		return errors.Wrapf(errors.TypeStorage, err, "cannot create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"warehouse_id", "commodity", "amount", "unit"}); err != nil {
		tmp.Close()
		return errors.Wrap(errors.TypeStorage, "write header", err)
	}
	for _, item := range inv.Items() {
		record := []string{
			strconv.Itoa(item.Key.WarehouseID),
			item.Key.Commodity.String(),
			item.Quantity.Amount().String(),
			item.Quantity.Unit().String(),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return errors.Wrap(errors.TypeStorage, "write row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.TypeStorage, "flush", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.TypeStorage, "close temp file", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(errors.TypeStorage, err, "cannot replace %s", s.path)
	}
	return nil
}
