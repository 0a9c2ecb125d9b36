package models

import (
	"time"
)

// Usage describes how a vehicle is predominantly driven.
type Usage string

const (
	UsageUrban   Usage = "urban"
	UsageHighway Usage = "highway"
	UsageMixed   Usage = "mixed"
)

// IsValidUsage checks if a usage category is valid
func IsValidUsage(u Usage) bool {
	switch u {
	case UsageUrban, UsageHighway, UsageMixed:
		return true
	default:
		return false
	}
}

// Vehicle represents a registered vehicle.
type Vehicle struct {
	ID          string    `bson:"_id" json:"id"`
	Plate       string    `bson:"plate" json:"plate"` // normalized uppercase
	Make        string    `bson:"make" json:"make"`
	Model       string    `bson:"model" json:"model"`
	Year        int       `bson:"year" json:"year"`
	OdoKm       int64     `bson:"odo_km" json:"odo_km"`             // in kilometers, never decreases
	FirstOdoKm  int64     `bson:"first_odo_km" json:"first_odo_km"` // reading at registration
	HealthScore int       `bson:"health_score" json:"health_score"` // 0-100
	FuelType    string    `bson:"fuel_type" json:"fuel_type"`       // "gasoline", "ethanol", "diesel", "flex"
	Usage       Usage     `bson:"usage" json:"usage"`
	LastUpdate  time.Time `bson:"last_update" json:"last_update"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
