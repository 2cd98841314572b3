package alloc

import (
	"sort"

	"github.com/shopspring/decimal"

	"shipalloc/core/domain"
	"shipalloc/core/units"
)

// EqualDistribution splits each incoming commodity across all warehouses
// that declare capacity for it, weighted by remaining headroom. Fractional
// splits are settled with the largest-remainder method at the registry
// rounding scale; ties go to the lowest warehouse identifier.
type EqualDistribution struct {
	units *units.Registry
}

// NewEqualDistribution builds the strategy
func NewEqualDistribution(reg *units.Registry) *EqualDistribution {
	return &EqualDistribution{units: reg}
}

// Name returns the registered strategy name
func (a *EqualDistribution) Name() string {
	return NameEqualDistribution
}

// Allocate implements the Allocator contract
func (a *EqualDistribution) Allocate(warehouses []domain.Warehouse, current domain.Inventory, ship domain.ShipInventory) (domain.Inventory, error) {
	result := current.Clone()
	ordered := sortedByID(warehouses)
	step := decimal.New(1, -units.Scale)

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
		total := converted.Amount()

		type slot struct {
			key      domain.ItemKey
			stored   decimal.Decimal
			headroom decimal.Decimal
			share    decimal.Decimal
			fraction decimal.Decimal
		}
		var slots []slot
		available := decimal.Zero
		for _, w := range ordered {
			capacity, ok := w.CapacityFor(c)
			if !ok {
				continue
			}
			capCanon, err := a.units.Convert(c, capacity, canon)
			if err != nil {
				return domain.Inventory{}, err
			}
			key := domain.ItemKey{WarehouseID: w.ID(), Commodity: c}
			stored, err := storedAmount(a.units, result, key, canon)
			if err != nil {
				return domain.Inventory{}, err
			}
			headroom := capCanon.Amount().Sub(stored)
			if headroom.IsNegative() {
				headroom = decimal.Zero
			}
			slots = append(slots, slot{key: key, stored: stored, headroom: headroom})
			available = available.Add(headroom)
		}

		if available.LessThan(total) {
			rq, err := domain.NewQuantity(canon, total.Sub(available))
			if err != nil {
				return domain.Inventory{}, err
			}
			shortfalls = append(shortfalls, Shortfall{Commodity: c, Remainder: rq})
			continue
		}

		// Headroom-weighted share, floored to the rounding scale. The
		// floored shares never overshoot a slot's headroom because
		// headroom amounts are already at that scale.
		floorSum := decimal.Zero
		for i := range slots {
			raw := total.Mul(slots[i].headroom).DivRound(available, units.Scale+8)
			slots[i].share = raw.RoundFloor(units.Scale)
			slots[i].fraction = raw.Sub(slots[i].share)
			floorSum = floorSum.Add(slots[i].share)
		}

		// Largest-remainder settlement of the leftover quanta. Slots are
		// already in ascending warehouse order, so a stable sort makes the
		// lowest identifier win ties.
		order := make([]int, len(slots))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(x, y int) bool {
			return slots[order[x]].fraction.GreaterThan(slots[order[y]].fraction)
		})

		// The conversion registry keeps all amounts at its scale, so the
		// remainder is a whole number of quanta. Any residue finer than
		// one quantum cannot be placed and must surface as a shortfall,
		// never vanish.
		remainder := total.Sub(floorSum)
		leftover := remainder.Div(step).IntPart()
		residue := remainder.Sub(step.Mul(decimal.NewFromInt(leftover)))
		for k := 0; leftover > 0 && k < len(order); k++ {
			s := &slots[order[k]]
			if s.share.Add(step).GreaterThan(s.headroom) {
				continue
			}
			s.share = s.share.Add(step)
			leftover--
		}
		if leftover > 0 || residue.IsPositive() {
			unplaced := residue.Add(step.Mul(decimal.NewFromInt(leftover)))
			rq, err := domain.NewQuantity(canon, unplaced)
			if err != nil {
				return domain.Inventory{}, err
			}
			shortfalls = append(shortfalls, Shortfall{Commodity: c, Remainder: rq})
			continue
		}

		for _, s := range slots {
			if s.share.IsZero() {
				continue
			}
			q, err := domain.NewQuantity(canon, s.stored.Add(s.share))
			if err != nil {
				return domain.Inventory{}, err
			}
			result.Set(s.key, q)
		}
	}

	if len(shortfalls) > 0 {
		return domain.Inventory{}, &InsufficientCapacityError{Strategy: a.Name(), Shortfalls: shortfalls}
	}
	return result, nil
}
