package enums

import "fmt"

// VehicleStatus is the availability flag carried on a vehicle record. The
// assignment engine flips between in_use and parked; maintenance is owned
// by the maintenance module and is never written here.
type VehicleStatus string

const (
	VehicleStatusParked      VehicleStatus = "parked"
	VehicleStatusInUse       VehicleStatus = "in_use"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

var validVehicleStatuses = []VehicleStatus{
	VehicleStatusParked,
	VehicleStatusInUse,
	VehicleStatusMaintenance,
}

// String implements fmt.Stringer.
func (v VehicleStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleStatus.
func (v VehicleStatus) IsValid() bool {
	for _, candidate := range validVehicleStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleStatus converts raw input into a VehicleStatus.
func ParseVehicleStatus(value string) (VehicleStatus, error) {
	for _, candidate := range validVehicleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle status %q", value)
}
