package models

import (
	"time"
)

// MaintenanceStatus is the lifecycle state of a maintenance event. The only
// transition is scheduled to completed.
type MaintenanceStatus string

const (
	MaintenanceScheduled MaintenanceStatus = "scheduled"
	MaintenanceCompleted MaintenanceStatus = "completed"
)

// MaintenanceEvent represents a vehicle maintenance record. Immutable once
// created, except for the status transition.
type MaintenanceEvent struct {
	ID         string            `bson:"_id" json:"id"`
	VehicleID  string            `bson:"vehicle_id" json:"vehicle_id"`
	Type       string            `bson:"type" json:"type"` // free text, e.g. "oil change"
	Date       time.Time         `bson:"date" json:"date"`
	OdoKm      int64             `bson:"odo_km" json:"odo_km"`
	PriceCents int64             `bson:"price_cents" json:"price_cents"`
	Vendor     string            `bson:"vendor" json:"vendor"`
	Status     MaintenanceStatus `bson:"status" json:"status"`
	CreatedAt  time.Time         `bson:"created_at" json:"created_at"`
}
