package alloc

import (
	"github.com/shopspring/decimal"

	"shipalloc/core/domain"
	"shipalloc/core/units"
)

// FirstAvailable fills warehouses in ascending identifier order, loading
// each up to capacity × threshold before spilling the remainder to the
// next one.
type FirstAvailable struct {
	threshold decimal.Decimal
	units     *units.Registry
}

// NewFirstAvailable builds the strategy; threshold must lie in [0,1]
func NewFirstAvailable(threshold decimal.Decimal, reg *units.Registry) (*FirstAvailable, error) {
	if threshold.IsNegative() || threshold.GreaterThan(decimal.NewFromInt(1)) {
		return nil, &domain.ValidationError{
			Field:  "threshold",
			Value:  threshold.String(),
			Reason: "ideal threshold must be within [0,1]",
		}
	}
	return &FirstAvailable{threshold: threshold, units: reg}, nil
}

// Name returns the registered strategy name
func (a *FirstAvailable) Name() string {
	return NameFirstAvailable
}

// Allocate implements the Allocator contract
func (a *FirstAvailable) Allocate(warehouses []domain.Warehouse, current domain.Inventory, ship domain.ShipInventory) (domain.Inventory, error) {
	result := current.Clone()
	ordered := sortedByID(warehouses)

	var shortfalls []Shortfall
	for _, c := range ship.Commodities() {
		incoming, _ := ship.Get(c)
		if incoming.IsZero() {
			continue
		}

		canon, err := a.units.Canonical(c)
		if err != nil {
			return domain.Inventory{}, err
		}
		converted, err := a.units.Convert(c, incoming, canon)
		if err != nil {
			return domain.Inventory{}, err
		}
		remaining := converted.Amount()

		for _, w := range ordered {
			if remaining.IsZero() {
				break
			}
			capacity, ok := w.CapacityFor(c)
			if !ok {
				continue
			}
			capCanon, err := a.units.Convert(c, capacity, canon)
			if err != nil {
				return domain.Inventory{}, err
			}
			limit := units.Quantize(capCanon.Amount().Mul(a.threshold))

			key := domain.ItemKey{WarehouseID: w.ID(), Commodity: c}
			stored, err := storedAmount(a.units, result, key, canon)
			if err != nil {
				return domain.Inventory{}, err
			}
			headroom := limit.Sub(stored)
			if !headroom.IsPositive() {
				continue
			}

			take := decimal.Min(remaining, headroom)
			q, err := domain.NewQuantity(canon, stored.Add(take))
			if err != nil {
				return domain.Inventory{}, err
			}
			result.Set(key, q)
			remaining = remaining.Sub(take)
		}

		if !remaining.IsZero() {
			rq, err := domain.NewQuantity(canon, remaining)
			if err != nil {
				return domain.Inventory{}, err
			}
			shortfalls = append(shortfalls, Shortfall{Commodity: c, Remainder: rq})
		}
	}

	if len(shortfalls) > 0 {
		return domain.Inventory{}, &InsufficientCapacityError{Strategy: a.Name(), Shortfalls: shortfalls}
	}
	return result, nil
}
