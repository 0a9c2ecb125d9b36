package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// ReminderHandler handles service reminder requests
type ReminderHandler struct {
	service *fleet.Service
	now     func() time.Time
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(service *fleet.Service) *ReminderHandler {
	return &ReminderHandler{service: service, now: time.Now}
}

type createReminderRequest struct {
	Type    string     `json:"type"`
	DueKm   *int64     `json:"due_km"`
	DueDate *time.Time `json:"due_date"`
	Risk    string     `json:"risk"`
}

type deferReminderRequest struct {
	DueKm   *int64     `json:"due_km"`
	DueDate *time.Time `json:"due_date"`
}

// Create attaches a new reminder to a vehicle
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	reminder, err := h.service.CreateReminder(r.Context(), chi.URLParam(r, "id"), req.Type, req.DueKm, req.DueDate, models.Risk(req.Risk))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reminder)
}

// Done marks a reminder as completed
func (h *ReminderHandler) Done(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkReminderDone(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder marked done"})
}

// Defer pushes a reminder's due point further out
func (h *ReminderHandler) Defer(w http.ResponseWriter, r *http.Request) {
	var req deferReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	reminder, err := h.service.DeferReminder(r.Context(), chi.URLParam(r, "id"), req.DueKm, req.DueDate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reminder)
}

// List returns the pending reminders for a vehicle with remaining
// distance, remaining days and the classified risk per reminder.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	outlook, err := h.service.RemindersOutlook(chi.URLParam(r, "id"), h.now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outlook)
}
