package assignments

import (
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

// CreateInput holds the fields required to book a driver on a vehicle.
type CreateInput struct {
	VehicleID uuid.UUID
	DriverID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
}

// UpdateInput carries the mutable fields of an active assignment. Nil
// pointers mean "leave unchanged".
type UpdateInput struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
}

// ListParams filter the assignment listing; all filters are optional and
// combine with AND semantics.
type ListParams struct {
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
	Status    *enums.AssignmentStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Cursor    string
}

// ListItem is one assignment row in a listing response.
type ListItem struct {
	ID        uuid.UUID              `json:"id"`
	VehicleID uuid.UUID              `json:"vehicle_id"`
	DriverID  uuid.UUID              `json:"driver_id"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Status    enums.AssignmentStatus `json:"status"`
	Notes     *string                `json:"notes,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// ListResult is a page of assignments plus the cursor for the next page.
type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor,omitempty"`
}

// Stats summarizes the assignment table for dashboards.
type Stats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
	InWindow  int64 `json:"in_window"`
	Upcoming  int64 `json:"upcoming"`
}

// Candidate describes the interval a caller wants to validate or book.
type Candidate struct {
	DriverID  uuid.UUID
	VehicleID uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

// Conflict describes one active assignment that overlaps a candidate
// interval, including the counterpart entity's display info so callers
// can render a human-readable explanation.
type Conflict struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	DriverID     uuid.UUID `json:"driver_id"`
	VehicleID    uuid.UUID `json:"vehicle_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DriverName   string    `json:"driver_name,omitempty"`
	VehiclePlate string    `json:"vehicle_plate,omitempty"`
}

// ConflictReport carries the driver-side and vehicle-side overlaps for a
// candidate interval. Both lists may be empty; the caller decides whether
// a non-empty list is fatal.
type ConflictReport struct {
	DriverConflicts  []Conflict `json:"driver_conflicts"`
	VehicleConflicts []Conflict `json:"vehicle_conflicts"`
}

// HasConflicts reports whether either side overlaps.
func (r ConflictReport) HasConflicts() bool {
	return len(r.DriverConflicts) > 0 || len(r.VehicleConflicts) > 0
}
