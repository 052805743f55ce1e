package models

import (
	"time"

	"github.com/google/uuid"
)

// ShiftAssignment materializes a template for one driver on one calendar
// date. StartTimestamp/EndTimestamp are rollover-adjusted absolutes and
// Hours is the derived duration rounded to two decimals. Rows are
// immutable once created; drivers may only delete them.
type ShiftAssignment struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID       uuid.UUID `gorm:"column:driver_id;type:uuid;not null"`
	TemplateID     uuid.UUID `gorm:"column:template_id;type:uuid;not null"`
	Date           time.Time `gorm:"column:date;not null"`
	StartTimestamp time.Time `gorm:"column:start_timestamp;not null"`
	EndTimestamp   time.Time `gorm:"column:end_timestamp;not null"`
	Hours          float64   `gorm:"column:hours;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
