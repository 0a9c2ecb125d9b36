package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// LedgerHandler handles maintenance and fuel ledger requests
type LedgerHandler struct {
	service *fleet.Service
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(service *fleet.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

type maintenanceRequest struct {
	Type       string    `json:"type"`
	Date       time.Time `json:"date"`
	OdoKm      int64     `json:"odo_km"`
	PriceCents int64     `json:"price_cents"`
	Vendor     string    `json:"vendor"`
	Scheduled  bool      `json:"scheduled"`
}

type fuelRequest struct {
	Date       time.Time `json:"date"`
	Liters     float64   `json:"liters"`
	PriceCents int64     `json:"price_cents"`
	OdoKm      int64     `json:"odo_km"`
	FullTank   bool      `json:"full_tank"`
}

// RecordMaintenance records a completed or scheduled maintenance event
func (h *LedgerHandler) RecordMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	vehicleID := chi.URLParam(r, "id")
	var (
		event models.MaintenanceEvent
		err   error
	)
	if req.Scheduled {
		event, err = h.service.ScheduleMaintenance(r.Context(), vehicleID, req.Type, req.Date, req.OdoKm, req.PriceCents, req.Vendor)
	} else {
		event, err = h.service.RecordMaintenance(r.Context(), vehicleID, req.Type, req.Date, req.OdoKm, req.PriceCents, req.Vendor)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// CompleteMaintenance transitions a scheduled event to completed
func (h *LedgerHandler) CompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.CompleteMaintenance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// RecordFuel records a fuel fill
func (h *LedgerHandler) RecordFuel(w http.ResponseWriter, r *http.Request) {
	var req fuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	fill, err := h.service.RecordFuelFill(r.Context(), chi.URLParam(r, "id"), req.Date, req.Liters, req.PriceCents, req.OdoKm, req.FullTank)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fill)
}

// ListMaintenance returns the maintenance history for a vehicle
func (h *LedgerHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	if _, err := h.service.Vehicle(vehicleID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.service.MaintenanceFor(vehicleID))
}

// ListFuel returns fuel fills for a vehicle, newest first
func (h *LedgerHandler) ListFuel(w http.ResponseWriter, r *http.Request) {
	vehicleID := chi.URLParam(r, "id")
	if _, err := h.service.Vehicle(vehicleID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.service.FuelLogsForDisplay(vehicleID))
}
