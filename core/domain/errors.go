package domain

import "fmt"

// ValidationError reports a domain object constructed from an impossible
// value. Always fatal; raised at construction time, never recovered.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IncompatibleUnitError reports an operation mixing units with no known
// relation. Commodity is empty when the error comes from plain quantity
// arithmetic rather than a registry conversion.
type IncompatibleUnitError struct {
	Commodity Commodity
	From      Unit
	To        Unit
}

// Error implements the error interface
func (e *IncompatibleUnitError) Error() string {
	if e.Commodity != "" {
		return fmt.Sprintf("no conversion from %s to %s for %s", e.From, e.To, e.Commodity)
	}
	return fmt.Sprintf("incompatible units: %s vs %s", e.From, e.To)
}
