package enums

import "fmt"

// DriverStatus is the availability flag carried on a driver record. The
// assignment engine only ever flips between available and on_duty; resting
// is operator-managed.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusOnDuty    DriverStatus = "on_duty"
	DriverStatusResting   DriverStatus = "resting"
)

var validDriverStatuses = []DriverStatus{
	DriverStatusAvailable,
	DriverStatusOnDuty,
	DriverStatusResting,
}

// String implements fmt.Stringer.
func (d DriverStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DriverStatus.
func (d DriverStatus) IsValid() bool {
	for _, candidate := range validDriverStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverStatus converts raw input into a DriverStatus.
func ParseDriverStatus(value string) (DriverStatus, error) {
	for _, candidate := range validDriverStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver status %q", value)
}
