package fleet

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// Ledger is the append-only store of maintenance events and fuel fills,
// keyed by vehicle. Entries are kept in chronological order.
type Ledger struct {
	mu          sync.RWMutex
	registry    *Registry
	maintenance map[string][]*models.MaintenanceEvent
	fuel        map[string][]*models.FuelLog
	events      map[string]*models.MaintenanceEvent
	now         func() time.Time
}

// NewLedger creates an empty ledger backed by the given registry.
func NewLedger(registry *Registry) *Ledger {
	return &Ledger{
		registry:    registry,
		maintenance: make(map[string][]*models.MaintenanceEvent),
		fuel:        make(map[string][]*models.FuelLog),
		events:      make(map[string]*models.MaintenanceEvent),
		now:         time.Now,
	}
}

// RecordMaintenance appends a completed maintenance event.
func (l *Ledger) RecordMaintenance(vehicleID, kind string, date time.Time, odoKm, priceCents int64, vendor string) (models.MaintenanceEvent, error) {
	return l.addMaintenance(vehicleID, kind, date, odoKm, priceCents, vendor, models.MaintenanceCompleted)
}

// ScheduleMaintenance appends a maintenance event that has not happened yet.
func (l *Ledger) ScheduleMaintenance(vehicleID, kind string, date time.Time, odoKm, priceCents int64, vendor string) (models.MaintenanceEvent, error) {
	return l.addMaintenance(vehicleID, kind, date, odoKm, priceCents, vendor, models.MaintenanceScheduled)
}

func (l *Ledger) addMaintenance(vehicleID, kind string, date time.Time, odoKm, priceCents int64, vendor string, status models.MaintenanceStatus) (models.MaintenanceEvent, error) {
	if _, err := l.registry.Get(vehicleID); err != nil {
		return models.MaintenanceEvent{}, err
	}
	if kind == "" {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: maintenance type is required", ErrValidation)
	}
	if odoKm < 0 {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: odometer must be non-negative", ErrValidation)
	}
	if priceCents < 0 {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: price must be non-negative", ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prior := l.maxOdoAtOrBefore(vehicleID, date); odoKm < prior {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: odometer %d km below prior reading %d km", ErrValidation, odoKm, prior)
	}

	ev := &models.MaintenanceEvent{
		ID:         uuid.NewString(),
		VehicleID:  vehicleID,
		Type:       kind,
		Date:       date,
		OdoKm:      odoKm,
		PriceCents: priceCents,
		Vendor:     vendor,
		Status:     status,
		CreatedAt:  l.now(),
	}
	l.maintenance[vehicleID] = append(l.maintenance[vehicleID], ev)
	sort.SliceStable(l.maintenance[vehicleID], func(i, j int) bool {
		return l.maintenance[vehicleID][i].Date.Before(l.maintenance[vehicleID][j].Date)
	})
	l.events[ev.ID] = ev

	// A scheduled event carries an expected reading, not an observed one.
	if status == models.MaintenanceCompleted {
		l.bumpOdometer(vehicleID, odoKm)
	}
	return *ev, nil
}

// RecordFuelFill appends a fuel fill and derives its economy when possible.
// The computed km/L spans back to the closest preceding full-tank fill; with
// no such fill the economy stays nil and is excluded from averages.
func (l *Ledger) RecordFuelFill(vehicleID string, date time.Time, liters float64, priceCents, odoKm int64, fullTank bool) (models.FuelLog, error) {
	if _, err := l.registry.Get(vehicleID); err != nil {
		return models.FuelLog{}, err
	}
	if liters <= 0 {
		return models.FuelLog{}, fmt.Errorf("%w: liters must be positive", ErrValidation)
	}
	if odoKm < 0 {
		return models.FuelLog{}, fmt.Errorf("%w: odometer must be non-negative", ErrValidation)
	}
	if priceCents < 0 {
		return models.FuelLog{}, fmt.Errorf("%w: price must be non-negative", ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prior := l.maxOdoAtOrBefore(vehicleID, date); odoKm < prior {
		return models.FuelLog{}, fmt.Errorf("%w: odometer %d km below prior reading %d km", ErrValidation, odoKm, prior)
	}

	var kml *float64
	if prev := l.lastFullTankBelow(vehicleID, odoKm); prev != nil {
		v := float64(odoKm-prev.OdoKm) / liters
		kml = &v
	}

	fl := &models.FuelLog{
		ID:         uuid.NewString(),
		VehicleID:  vehicleID,
		Date:       date,
		Liters:     liters,
		PriceCents: priceCents,
		OdoKm:      odoKm,
		FullTank:   fullTank,
		Kml:        kml,
		CreatedAt:  l.now(),
	}
	l.fuel[vehicleID] = append(l.fuel[vehicleID], fl)
	sort.SliceStable(l.fuel[vehicleID], func(i, j int) bool {
		return l.fuel[vehicleID][i].Date.Before(l.fuel[vehicleID][j].Date)
	})

	l.bumpOdometer(vehicleID, odoKm)
	return *fl, nil
}

// CompleteMaintenance transitions a scheduled event to completed. This is the
// only mutation a recorded event admits.
func (l *Ledger) CompleteMaintenance(eventID string) (models.MaintenanceEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev, ok := l.events[eventID]
	if !ok {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: maintenance event %s", ErrNotFound, eventID)
	}
	if ev.Status != models.MaintenanceScheduled {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: event %s is already %s", ErrValidation, eventID, ev.Status)
	}
	ev.Status = models.MaintenanceCompleted
	l.bumpOdometer(ev.VehicleID, ev.OdoKm)
	return *ev, nil
}

// Event returns a copy of a single maintenance event.
func (l *Ledger) Event(eventID string) (models.MaintenanceEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ev, ok := l.events[eventID]
	if !ok {
		return models.MaintenanceEvent{}, fmt.Errorf("%w: maintenance event %s", ErrNotFound, eventID)
	}
	return *ev, nil
}

// MaintenanceFor returns the vehicle's maintenance events in chronological
// order. Unknown vehicles yield an empty slice.
func (l *Ledger) MaintenanceFor(vehicleID string) []models.MaintenanceEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	events := l.maintenance[vehicleID]
	out := make([]models.MaintenanceEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, *ev)
	}
	return out
}

// FuelLogsFor returns the vehicle's fuel fills in chronological order, the
// order used for computation.
func (l *Ledger) FuelLogsFor(vehicleID string) []models.FuelLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	logs := l.fuel[vehicleID]
	out := make([]models.FuelLog, 0, len(logs))
	for _, fl := range logs {
		out = append(out, *fl)
	}
	return out
}

// FuelLogsForDisplay returns fuel fills most-recent-first.
func (l *Ledger) FuelLogsForDisplay(vehicleID string) []models.FuelLog {
	logs := l.FuelLogsFor(vehicleID)
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs
}

// maxOdoAtOrBefore is the highest odometer observed for the vehicle at or
// before the given date, across the registry and both ledgers. The registry
// contributes its live reading for dates at or past the last update, and the
// registration reading for dates back to registration. Entries backdated
// before registration are checked against ledger history alone. Scheduled
// maintenance carries an expected reading, not an observed one, so it never
// counts. Callers must hold l.mu.
func (l *Ledger) maxOdoAtOrBefore(vehicleID string, date time.Time) int64 {
	var max int64
	if v, err := l.registry.Get(vehicleID); err == nil {
		switch {
		case !v.LastUpdate.After(date):
			max = v.OdoKm
		case !v.CreatedAt.After(date):
			max = v.FirstOdoKm
		}
	}
	for _, ev := range l.maintenance[vehicleID] {
		if ev.Status == models.MaintenanceScheduled {
			continue
		}
		if !ev.Date.After(date) && ev.OdoKm > max {
			max = ev.OdoKm
		}
	}
	for _, fl := range l.fuel[vehicleID] {
		if !fl.Date.After(date) && fl.OdoKm > max {
			max = fl.OdoKm
		}
	}
	return max
}

// lastFullTankBelow is the full-tank fill with the highest odometer strictly
// below the given reading. Callers must hold l.mu.
func (l *Ledger) lastFullTankBelow(vehicleID string, odoKm int64) *models.FuelLog {
	var prev *models.FuelLog
	for _, fl := range l.fuel[vehicleID] {
		if fl.FullTank && fl.OdoKm < odoKm && (prev == nil || fl.OdoKm > prev.OdoKm) {
			prev = fl
		}
	}
	return prev
}

// bumpOdometer advances the registry reading when a ledger entry carries a
// newer one. Callers must hold l.mu.
func (l *Ledger) bumpOdometer(vehicleID string, odoKm int64) {
	v, err := l.registry.Get(vehicleID)
	if err == nil && odoKm > v.OdoKm {
		// cannot regress here, the reading just compared greater
		_ = l.registry.UpdateOdometer(vehicleID, odoKm)
	}
}
