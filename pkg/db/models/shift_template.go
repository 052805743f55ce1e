package models

import (
	"time"

	"github.com/google/uuid"
)

// ShiftTemplate is a reusable pair of wall-clock bounds (HH:MM or
// HH:MM:SS), not tied to any calendar date.
type ShiftTemplate struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	StartTime string    `gorm:"column:start_time;not null"`
	EndTime   string    `gorm:"column:end_time;not null"`
	Notes     *string   `gorm:"column:notes"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
