package shifts

import (
	"time"

	"github.com/google/uuid"
)

// CreateTemplateInput holds the fields for a new shift template.
type CreateTemplateInput struct {
	Name      string
	StartTime string
	EndTime   string
	Notes     *string
}

// TemplateItem is one template row in a listing response.
type TemplateItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ShiftItem is one materialized shift in a driver's schedule.
type ShiftItem struct {
	ID             uuid.UUID `json:"id"`
	DriverID       uuid.UUID `json:"driver_id"`
	TemplateID     uuid.UUID `json:"template_id"`
	Date           time.Time `json:"date"`
	StartTimestamp time.Time `json:"start_timestamp"`
	EndTimestamp   time.Time `json:"end_timestamp"`
	Hours          float64   `json:"hours"`
}

// HoursReport is the aggregate of a driver's shift hours over an
// inclusive date range.
type HoursReport struct {
	DriverID   uuid.UUID `json:"driver_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	TotalHours float64   `json:"total_hours"`
	ShiftCount int64     `json:"shift_count"`
}
