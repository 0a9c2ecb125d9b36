package models

import (
	"time"
)

// Risk classifies how urgent an upcoming obligation is.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// IsValidRisk checks if a risk classification is valid
func IsValidRisk(r Risk) bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Reminder represents an upcoming obligation for a vehicle, due at an
// odometer reading, a date, or both. An empty Risk means the classification
// is derived from the configured thresholds instead of being pinned.
type Reminder struct {
	ID        string     `bson:"_id" json:"id"`
	VehicleID string     `bson:"vehicle_id" json:"vehicle_id"`
	Type      string     `bson:"type" json:"type"` // e.g. "oil change", "registration tax"
	DueKm     *int64     `bson:"due_km,omitempty" json:"due_km,omitempty"`
	DueDate   *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Risk      Risk       `bson:"risk,omitempty" json:"risk,omitempty"`
	Done      bool       `bson:"done" json:"done"`
	DoneAt    *time.Time `bson:"done_at,omitempty" json:"done_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
}

// ReminderOutlook is a reminder together with its computed proximity
// measures. Nil remaining values mean the corresponding due value is unset;
// negative values mean overdue.
type ReminderOutlook struct {
	Reminder      Reminder `json:"reminder"`
	KmRemaining   *int64   `json:"km_remaining,omitempty"`
	DaysRemaining *int     `json:"days_remaining,omitempty"`
	Risk          Risk     `json:"risk"`
}
