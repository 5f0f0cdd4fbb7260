package enums

import "fmt"

// BusinessStatus tracks the lifecycle of a tenant.
type BusinessStatus string

const (
	BusinessStatusActive    BusinessStatus = "active"
	BusinessStatusSuspended BusinessStatus = "suspended"
	BusinessStatusClosed    BusinessStatus = "closed"
)

var validBusinessStatuses = []BusinessStatus{
	BusinessStatusActive,
	BusinessStatusSuspended,
	BusinessStatusClosed,
}

// String implements fmt.Stringer.
func (b BusinessStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BusinessStatus.
func (b BusinessStatus) IsValid() bool {
	for _, candidate := range validBusinessStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBusinessStatus converts raw input into a BusinessStatus.
func ParseBusinessStatus(value string) (BusinessStatus, error) {
	for _, candidate := range validBusinessStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid business status %q", value)
}
