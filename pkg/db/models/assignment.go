package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

// Assignment binds a driver to a vehicle for a bounded time window.
// Active assignments for one driver (and independently for one vehicle)
// are pairwise non-overlapping on [StartTime, EndTime); the authoritative
// guard is the Postgres exclusion constraint, not application code.
type Assignment struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID uuid.UUID              `gorm:"column:vehicle_id;type:uuid;not null"`
	DriverID  uuid.UUID              `gorm:"column:driver_id;type:uuid;not null"`
	StartTime time.Time              `gorm:"column:start_time;not null"`
	EndTime   time.Time              `gorm:"column:end_time;not null"`
	Status    enums.AssignmentStatus `gorm:"column:status;not null;default:active"`
	Notes     *string                `gorm:"column:notes"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
