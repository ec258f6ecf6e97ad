package enums

import "fmt"

// ProductState is the display state derived from a product's flags and stock.
type ProductState string

const (
	ProductStateActive     ProductState = "active"
	ProductStateInactive   ProductState = "inactive"
	ProductStateOutOfStock ProductState = "out_of_stock"
)

var validProductStates = []ProductState{
	ProductStateActive,
	ProductStateInactive,
	ProductStateOutOfStock,
}

// String implements fmt.Stringer.
func (p ProductState) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductState.
func (p ProductState) IsValid() bool {
	for _, candidate := range validProductStates {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductState converts raw input into a ProductState.
func ParseProductState(value string) (ProductState, error) {
	for _, candidate := range validProductStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product state %q", value)
}
