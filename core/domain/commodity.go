// Package domain holds the immutable value objects of the allocation
// pipeline: commodities, unit-tagged quantities, warehouses and inventories.
// No I/O or allocation logic belongs here.
package domain

import "strings"

// Commodity is a tradeable good. The set is closed: parsers map source
// rows onto one of these values or reject the row.
type Commodity string

const (
	CommodityCorn  Commodity = "CORN"
	CommodityWheat Commodity = "WHEAT"
	CommodityOil   Commodity = "OIL"
)

// String returns the string representation
func (c Commodity) String() string {
	return string(c)
}

// Commodities returns all known commodities in stable order
func Commodities() []Commodity {
	return []Commodity{CommodityCorn, CommodityOil, CommodityWheat}
}

// ParseCommodity maps a raw source value onto a known Commodity
func ParseCommodity(s string) (Commodity, error) {
	switch Commodity(strings.ToUpper(strings.TrimSpace(s))) {
	case CommodityCorn:
		return CommodityCorn, nil
	case CommodityWheat:
		return CommodityWheat, nil
	case CommodityOil:
		return CommodityOil, nil
	}
	return "", &ValidationError{Field: "commodity", Value: s, Reason: "unknown commodity"}
}
