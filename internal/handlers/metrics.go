package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
)

// MetricsHandler serves derived per-vehicle metrics
type MetricsHandler struct {
	service *fleet.Service
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(service *fleet.Service) *MetricsHandler {
	return &MetricsHandler{service: service}
}

type vehicleMetricsResponse struct {
	VehicleID       string         `json:"vehicle_id"`
	AverageKml      *float64       `json:"average_kml"`
	TotalSpendCents int64          `json:"total_spend_cents"`
	HealthScore     int            `json:"health_score"`
	Health          map[string]int `json:"health"`
}

// Get returns fuel economy, total spend and the health breakdown for a vehicle
func (h *MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")

	vehicle, err := h.service.Vehicle(vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}

	breakdown, err := h.service.HealthBreakdown(vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicleMetricsResponse{
		VehicleID:       vehicleID,
		AverageKml:      h.service.AverageEconomy(vehicleID),
		TotalSpendCents: h.service.TotalSpend(vehicleID),
		HealthScore:     vehicle.HealthScore,
		Health:          breakdown,
	})
}
