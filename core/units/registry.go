// Package units implements the unit-conversion registry. Conversion
// factors are a static mapping; the registry does no inference. Identical
// inputs always produce identical outputs.
package units

import (
	"github.com/shopspring/decimal"

	"shipalloc/core/domain"
)

// Scale is the fixed precision of converted amounts: four decimal places,
// rounded half away from zero.
const Scale = 4

// Quantize applies the registry rounding policy to an amount
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

type convKey struct {
	commodity domain.Commodity
	from      domain.Unit
	to        domain.Unit
}

// Registry maps each commodity to its canonical unit and converts between
// compatible units of that commodity
type Registry struct {
	canonical map[domain.Commodity]domain.Unit
	factors   map[convKey]decimal.Decimal
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		canonical: make(map[domain.Commodity]domain.Unit),
		factors:   make(map[convKey]decimal.Decimal),
	}
}

// SetCanonical declares the unit a commodity is officially measured in
func (r *Registry) SetCanonical(c domain.Commodity, u domain.Unit) {
	r.canonical[c] = u
}

// RegisterFactor declares that for the given commodity,
// 1 from-unit = factor to-units. The reverse direction is derived by
// division, so only one direction needs registering.
func (r *Registry) RegisterFactor(c domain.Commodity, from, to domain.Unit, factor decimal.Decimal) {
	r.factors[convKey{commodity: c, from: from, to: to}] = factor
}

// Canonical returns the canonical unit for a commodity
func (r *Registry) Canonical(c domain.Commodity) (domain.Unit, error) {
	u, ok := r.canonical[c]
	if !ok {
		return "", &domain.ValidationError{
			Field:  "commodity",
			Value:  c.String(),
			Reason: "no canonical unit registered",
		}
	}
	return u, nil
}

// Convert converts a quantity of the given commodity to the target unit.
// Every result carries the registry scale, the identity conversion
// included, so amounts entering the allocators are always representable.
// Fails with IncompatibleUnitError when no factor links the two units.
func (r *Registry) Convert(c domain.Commodity, q domain.Quantity, target domain.Unit) (domain.Quantity, error) {
	if q.Unit() == target {
		return domain.NewQuantity(target, Quantize(q.Amount()))
	}

	if f, ok := r.factors[convKey{commodity: c, from: q.Unit(), to: target}]; ok {
		return domain.NewQuantity(target, Quantize(q.Amount().Mul(f)))
	}
	if f, ok := r.factors[convKey{commodity: c, from: target, to: q.Unit()}]; ok {
		return domain.NewQuantity(target, Quantize(q.Amount().DivRound(f, Scale+8).Round(Scale)))
	}

	return domain.Quantity{}, &domain.IncompatibleUnitError{Commodity: c, From: q.Unit(), To: target}
}

// ToCanonical converts a quantity to the commodity's canonical unit
func (r *Registry) ToCanonical(c domain.Commodity, q domain.Quantity) (domain.Quantity, error) {
	target, err := r.Canonical(c)
	if err != nil {
		return domain.Quantity{}, err
	}
	return r.Convert(c, q, target)
}

// Default returns the registry for the standard commodity set.
// Weight-per-bushel factors follow the US statutory bushel weights
// (corn 56 lb, wheat 60 lb) at 0.45359237 kg/lb.
func Default() *Registry {
	r := NewRegistry()

	r.SetCanonical(domain.CommodityCorn, domain.UnitBushel)
	r.SetCanonical(domain.CommodityWheat, domain.UnitTonne)
	r.SetCanonical(domain.CommodityOil, domain.UnitLitre)

	// Each commodity's accepted units must link to its canonical unit
	// directly: the registry does no transitive lookup, so a kg-only
	// bridge would leave e.g. wheat bushels unreachable from tonnes.
	r.RegisterFactor(domain.CommodityCorn, domain.UnitBushel, domain.UnitKilogram, dec("25.40117272"))
	r.RegisterFactor(domain.CommodityCorn, domain.UnitBushel, domain.UnitTonne, dec("0.02540117272"))
	r.RegisterFactor(domain.CommodityWheat, domain.UnitBushel, domain.UnitTonne, dec("0.0272155422"))
	r.RegisterFactor(domain.CommodityWheat, domain.UnitTonne, domain.UnitKilogram, dec("1000"))
	r.RegisterFactor(domain.CommodityOil, domain.UnitBarrel, domain.UnitLitre, dec("158.987294928"))

	return r
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
