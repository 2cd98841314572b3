package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a measurement unit a quantity is denominated in
type Unit string

const (
	UnitBushel   Unit = "bushel"
	UnitKilogram Unit = "kilogram"
	UnitTonne    Unit = "tonne"
	UnitLitre    Unit = "litre"
	UnitBarrel   Unit = "barrel"
)

// String returns the string representation
func (u Unit) String() string {
	return string(u)
}

// ParseUnit maps a raw source value onto a known Unit
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case UnitBushel:
		return UnitBushel, nil
	case UnitKilogram:
		return UnitKilogram, nil
	case UnitTonne:
		return UnitTonne, nil
	case UnitLitre:
		return UnitLitre, nil
	case UnitBarrel:
		return UnitBarrel, nil
	}
	return "", &ValidationError{Field: "unit", Value: s, Reason: "unknown unit"}
}

// Quantity is a unit-tagged, non-negative amount. The unit tag is fixed at
// construction; combining quantities of differing units is a checked error,
// never a silent coercion. The zero value carries no unit and no amount.
type Quantity struct {
	unit   Unit
	amount decimal.Decimal
}

// NewQuantity builds a quantity, rejecting negative amounts
func NewQuantity(unit Unit, amount decimal.Decimal) (Quantity, error) {
	if amount.IsNegative() {
		return Quantity{}, &ValidationError{
			Field:  "amount",
			Value:  amount.String(),
			Reason: "quantity amount must be non-negative",
		}
	}
	return Quantity{unit: unit, amount: amount}, nil
}

// MustQuantity builds a quantity from a decimal literal, panicking on bad
// input. For static fixtures and tests only.
func MustQuantity(unit Unit, amount string) Quantity {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(fmt.Sprintf("bad quantity literal %q: %v", amount, err))
	}
	q, err := NewQuantity(unit, d)
	if err != nil {
		panic(err)
	}
	return q
}

// Unit returns the unit tag
func (q Quantity) Unit() Unit {
	return q.unit
}

// Amount returns the decimal amount
func (q Quantity) Amount() decimal.Decimal {
	return q.amount
}

// IsZero reports whether the amount is zero
func (q Quantity) IsZero() bool {
	return q.amount.IsZero()
}

// Equal reports value equality: same unit, same amount
func (q Quantity) Equal(other Quantity) bool {
	return q.unit == other.unit && q.amount.Equal(other.amount)
}

// Add sums two quantities of the same unit
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if q.unit != other.unit {
		return Quantity{}, &IncompatibleUnitError{From: other.unit, To: q.unit}
	}
	return Quantity{unit: q.unit, amount: q.amount.Add(other.amount)}, nil
}

// Sub subtracts a quantity of the same unit; a negative result is invalid
func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if q.unit != other.unit {
		return Quantity{}, &IncompatibleUnitError{From: other.unit, To: q.unit}
	}
	res := q.amount.Sub(other.amount)
	if res.IsNegative() {
		return Quantity{}, &ValidationError{
			Field:  "amount",
			Value:  res.String(),
			Reason: "subtraction would produce a negative quantity",
		}
	}
	return Quantity{unit: q.unit, amount: res}, nil
}

// Cmp compares two quantities of the same unit (-1, 0, +1)
func (q Quantity) Cmp(other Quantity) (int, error) {
	if q.unit != other.unit {
		return 0, &IncompatibleUnitError{From: other.unit, To: q.unit}
	}
	return q.amount.Cmp(other.amount), nil
}

// String returns e.g. "5000 bushel"
func (q Quantity) String() string {
	return q.amount.String() + " " + string(q.unit)
}

type quantityJSON struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// MarshalJSON implements json.Marshaler
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(quantityJSON{Amount: q.amount.String(), Unit: string(q.unit)})
}

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw quantityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	unit, err := ParseUnit(raw.Unit)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return err
	}
	parsed, err := NewQuantity(unit, amount)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
