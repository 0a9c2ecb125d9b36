package fleet

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// Registry owns vehicle records. Vehicles are never deleted.
type Registry struct {
	mu       sync.RWMutex
	vehicles map[string]*models.Vehicle
	order    []string
	now      func() time.Time
}

// NewRegistry creates an empty vehicle registry.
func NewRegistry() *Registry {
	return &Registry{
		vehicles: make(map[string]*models.Vehicle),
		now:      time.Now,
	}
}

// Register validates and stores a new vehicle, assigning a fresh identifier.
// The plate is normalized to uppercase.
func (r *Registry) Register(plate, mk, model string, year int, odoKm int64, fuelType string, usage models.Usage) (models.Vehicle, error) {
	plate = strings.ToUpper(strings.TrimSpace(plate))
	if plate == "" {
		return models.Vehicle{}, fmt.Errorf("%w: plate is required", ErrValidation)
	}
	maxYear := r.now().Year() + 1
	if year < 1900 || year > maxYear {
		return models.Vehicle{}, fmt.Errorf("%w: year %d out of range [1900, %d]", ErrValidation, year, maxYear)
	}
	if odoKm < 0 {
		return models.Vehicle{}, fmt.Errorf("%w: odometer must be non-negative", ErrValidation)
	}
	if !models.IsValidUsage(usage) {
		return models.Vehicle{}, fmt.Errorf("%w: unknown usage category %q", ErrValidation, usage)
	}

	now := r.now()
	v := &models.Vehicle{
		ID:         uuid.NewString(),
		Plate:      plate,
		Make:       mk,
		Model:      model,
		Year:       year,
		OdoKm:      odoKm,
		FirstOdoKm: odoKm,
		FuelType:   fuelType,
		Usage:      usage,
		LastUpdate: now,
		CreatedAt:  now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID] = v
	r.order = append(r.order, v.ID)
	return *v, nil
}

// UpdateOdometer applies a new reading. Readings never decrease; an equal
// reading is allowed and refreshes the last-update timestamp.
func (r *Registry) UpdateOdometer(vehicleID string, newReading int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	if newReading < v.OdoKm {
		return fmt.Errorf("%w: reading %d km below current %d km", ErrRegression, newReading, v.OdoKm)
	}
	v.OdoKm = newReading
	v.LastUpdate = r.now()
	return nil
}

// SetHealthScore stores a recomputed health score for a vehicle.
func (r *Registry) SetHealthScore(vehicleID string, score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: health score %d out of range [0, 100]", ErrValidation, score)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	v.HealthScore = score
	return nil
}

// Get returns a copy of the vehicle record.
func (r *Registry) Get(vehicleID string) (models.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return models.Vehicle{}, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	return *v, nil
}

// List returns all vehicles in registration order.
func (r *Registry) List() []models.Vehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Vehicle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.vehicles[id])
	}
	return out
}
