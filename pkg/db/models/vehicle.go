package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

// Vehicle is owned by the fleet module; the assignment engine reads
// identity/display fields and writes Status only.
type Vehicle struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Plate     string              `gorm:"column:plate;not null"`
	Make      string              `gorm:"column:make"`
	Model     string              `gorm:"column:model"`
	Status    enums.VehicleStatus `gorm:"column:status;not null;default:parked"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
