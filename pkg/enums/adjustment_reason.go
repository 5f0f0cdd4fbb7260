package enums

import "fmt"

// AdjustmentReason explains a shrinkage write-off.
type AdjustmentReason string

const (
	AdjustmentReasonDamage AdjustmentReason = "damage"
	AdjustmentReasonLoss   AdjustmentReason = "loss"
	AdjustmentReasonTheft  AdjustmentReason = "theft"
	AdjustmentReasonExpiry AdjustmentReason = "expiry"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonDamage,
	AdjustmentReasonLoss,
	AdjustmentReasonTheft,
	AdjustmentReasonExpiry,
}

// String implements fmt.Stringer.
func (a AdjustmentReason) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentReason.
func (a AdjustmentReason) IsValid() bool {
	for _, candidate := range validAdjustmentReasons {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustmentReason converts raw input into an AdjustmentReason.
func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}
