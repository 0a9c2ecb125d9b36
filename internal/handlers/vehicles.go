package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// VehicleHandler handles vehicle registration and odometer requests
type VehicleHandler struct {
	service *fleet.Service
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(service *fleet.Service) *VehicleHandler {
	return &VehicleHandler{service: service}
}

type registerVehicleRequest struct {
	Plate    string `json:"plate"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	OdoKm    int64  `json:"odo_km"`
	FuelType string `json:"fuel_type"`
	Usage    string `json:"usage"`
}

type odometerRequest struct {
	OdoKm int64 `json:"odo_km"`
}

// Register handles vehicle registration
func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	vehicle, err := h.service.RegisterVehicle(r.Context(), req.Plate, req.Make, req.Model, req.Year, req.OdoKm, req.FuelType, models.Usage(req.Usage))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, vehicle)
}

// UpdateOdometer handles odometer updates for a vehicle
func (h *VehicleHandler) UpdateOdometer(w http.ResponseWriter, r *http.Request) {
	var req odometerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	vehicleID := chi.URLParam(r, "id")
	if err := h.service.UpdateOdometer(r.Context(), vehicleID, req.OdoKm); err != nil {
		writeError(w, err)
		return
	}

	vehicle, err := h.service.Vehicle(vehicleID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

// List returns all registered vehicles
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Vehicles())
}

// Get returns a single vehicle by id
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.service.Vehicle(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}
