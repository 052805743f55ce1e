package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

// Driver is owned by the personnel module; the assignment engine only
// reads identity/display fields and writes Status and StatusUpdatedAt.
type Driver struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FullName        string             `gorm:"column:full_name;not null"`
	LicenseNumber   string             `gorm:"column:license_number;not null"`
	Phone           *string            `gorm:"column:phone"`
	Status          enums.DriverStatus `gorm:"column:status;not null;default:available"`
	StatusUpdatedAt *time.Time         `gorm:"column:status_updated_at"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
