package enums

import "fmt"

// BusinessType classifies the sales channel a business operates.
type BusinessType string

const (
	BusinessTypeRetail    BusinessType = "retail"
	BusinessTypeWholesale BusinessType = "wholesale"
	BusinessTypeBoth      BusinessType = "both"
)

var validBusinessTypes = []BusinessType{
	BusinessTypeRetail,
	BusinessTypeWholesale,
	BusinessTypeBoth,
}

// String implements fmt.Stringer.
func (b BusinessType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BusinessType.
func (b BusinessType) IsValid() bool {
	for _, candidate := range validBusinessTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBusinessType converts raw input into a BusinessType.
func ParseBusinessType(value string) (BusinessType, error) {
	for _, candidate := range validBusinessTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid business type %q", value)
}
