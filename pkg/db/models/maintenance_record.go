package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

// MaintenanceRecord is owned by the maintenance module. The assignment
// engine performs a read-only "is this vehicle in in-progress maintenance"
// check against it and never writes it.
type MaintenanceRecord struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VehicleID   uuid.UUID               `gorm:"column:vehicle_id;type:uuid;not null"`
	Status      enums.MaintenanceStatus `gorm:"column:status;not null;default:scheduled"`
	Description *string                 `gorm:"column:description"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
