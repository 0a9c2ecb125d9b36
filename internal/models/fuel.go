package models

import (
	"time"
)

// FuelLog represents a single refuelling. Kml is only defined when an earlier
// full-tank fill exists for the vehicle; nil means "no economy measurable",
// which is distinct from zero.
type FuelLog struct {
	ID         string    `bson:"_id" json:"id"`
	VehicleID  string    `bson:"vehicle_id" json:"vehicle_id"`
	Date       time.Time `bson:"date" json:"date"`
	Liters     float64   `bson:"liters" json:"liters"`
	PriceCents int64     `bson:"price_cents" json:"price_cents"`
	OdoKm      int64     `bson:"odo_km" json:"odo_km"`
	FullTank   bool      `bson:"full_tank" json:"full_tank"`
	Kml        *float64  `bson:"kml,omitempty" json:"kml,omitempty"` // km per liter
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
