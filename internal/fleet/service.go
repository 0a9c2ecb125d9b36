package fleet

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// Archiver mirrors committed records to durable storage. Implementations are
// invoked after the in-memory update; a failed archive write never rolls the
// core back.
type Archiver interface {
	ArchiveVehicle(ctx context.Context, v models.Vehicle) error
	ArchiveMaintenance(ctx context.Context, ev models.MaintenanceEvent) error
	ArchiveFuelLog(ctx context.Context, fl models.FuelLog) error
	ArchiveReminder(ctx context.Context, rem models.Reminder) error
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Weights  HealthWeights
	Policy   RiskPolicy
	Archiver Archiver
}

// Service ties the registry, ledger, metrics engine and reminder scheduler
// together. Mutations are serialized per vehicle; operations on different
// vehicles proceed concurrently. The stored health score is recomputed after
// every mutation so it always equals the weighted recombination of the
// current breakdown.
type Service struct {
	registry  *Registry
	ledger    *Ledger
	scheduler *Scheduler
	metrics   *Metrics
	archiver  Archiver

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewService wires up a fresh in-memory core.
func NewService(opts Options) *Service {
	zero := HealthWeights{}
	if opts.Weights == zero {
		opts.Weights = DefaultHealthWeights()
	}
	registry := NewRegistry()
	ledger := NewLedger(registry)
	scheduler := NewScheduler(registry, opts.Policy)
	return &Service{
		registry:  registry,
		ledger:    ledger,
		scheduler: scheduler,
		metrics:   NewMetrics(registry, ledger, scheduler, opts.Weights),
		archiver:  opts.Archiver,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *Service) vehicleLock(vehicleID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[vehicleID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[vehicleID] = mu
	}
	return mu
}

// RegisterVehicle registers a vehicle and seeds its health score.
func (s *Service) RegisterVehicle(ctx context.Context, plate, mk, model string, year int, odoKm int64, fuelType string, usage models.Usage) (models.Vehicle, error) {
	v, err := s.registry.Register(plate, mk, model, year, odoKm, fuelType, usage)
	if err != nil {
		return models.Vehicle{}, err
	}
	mu := s.vehicleLock(v.ID)
	mu.Lock()
	defer mu.Unlock()
	s.refreshHealth(v.ID)
	v, _ = s.registry.Get(v.ID)
	s.archiveVehicle(ctx, v)
	return v, nil
}

// UpdateOdometer applies a new odometer reading for a vehicle.
func (s *Service) UpdateOdometer(ctx context.Context, vehicleID string, newReading int64) error {
	mu := s.vehicleLock(vehicleID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.registry.UpdateOdometer(vehicleID, newReading); err != nil {
		return err
	}
	s.refreshHealth(vehicleID)
	if v, err := s.registry.Get(vehicleID); err == nil {
		s.archiveVehicle(ctx, v)
	}
	return nil
}

// RecordMaintenance appends a completed maintenance event to the ledger.
func (s *Service) RecordMaintenance(ctx context.Context, vehicleID, kind string, date time.Time, odoKm, priceCents int64, vendor string) (models.MaintenanceEvent, error) {
	return s.addMaintenance(ctx, vehicleID, kind, date, odoKm, priceCents, vendor, false)
}

// ScheduleMaintenance appends a scheduled maintenance event to the ledger.
func (s *Service) ScheduleMaintenance(ctx context.Context, vehicleID, kind string, date time.Time, odoKm, priceCents int64, vendor string) (models.MaintenanceEvent, error) {
	return s.addMaintenance(ctx, vehicleID, kind, date, odoKm, priceCents, vendor, true)
}

func (s *Service) addMaintenance(ctx context.Context, vehicleID, kind string, date time.Time, odoKm, priceCents int64, vendor string, scheduled bool) (models.MaintenanceEvent, error) {
	mu := s.vehicleLock(vehicleID)
	mu.Lock()
	defer mu.Unlock()
	var ev models.MaintenanceEvent
	var err error
	if scheduled {
		ev, err = s.ledger.ScheduleMaintenance(vehicleID, kind, date, odoKm, priceCents, vendor)
	} else {
		ev, err = s.ledger.RecordMaintenance(vehicleID, kind, date, odoKm, priceCents, vendor)
	}
	if err != nil {
		return models.MaintenanceEvent{}, err
	}
	s.refreshHealth(vehicleID)
	s.archiveMaintenance(ctx, ev)
	if v, gerr := s.registry.Get(vehicleID); gerr == nil {
		s.archiveVehicle(ctx, v)
	}
	return ev, nil
}

// CompleteMaintenance transitions a scheduled event to completed.
func (s *Service) CompleteMaintenance(ctx context.Context, eventID string) (models.MaintenanceEvent, error) {
	ev, err := s.ledger.Event(eventID)
	if err != nil {
		return models.MaintenanceEvent{}, err
	}
	mu := s.vehicleLock(ev.VehicleID)
	mu.Lock()
	defer mu.Unlock()
	ev, err = s.ledger.CompleteMaintenance(eventID)
	if err != nil {
		return models.MaintenanceEvent{}, err
	}
	s.refreshHealth(ev.VehicleID)
	s.archiveMaintenance(ctx, ev)
	return ev, nil
}

// RecordFuelFill appends a fuel fill to the ledger.
func (s *Service) RecordFuelFill(ctx context.Context, vehicleID string, date time.Time, liters float64, priceCents, odoKm int64, fullTank bool) (models.FuelLog, error) {
	mu := s.vehicleLock(vehicleID)
	mu.Lock()
	defer mu.Unlock()
	fl, err := s.ledger.RecordFuelFill(vehicleID, date, liters, priceCents, odoKm, fullTank)
	if err != nil {
		return models.FuelLog{}, err
	}
	s.refreshHealth(vehicleID)
	s.archiveFuelLog(ctx, fl)
	if v, gerr := s.registry.Get(vehicleID); gerr == nil {
		s.archiveVehicle(ctx, v)
	}
	return fl, nil
}

// CreateReminder registers a new obligation for a vehicle.
func (s *Service) CreateReminder(ctx context.Context, vehicleID, kind string, dueKm *int64, dueDate *time.Time, risk models.Risk) (models.Reminder, error) {
	mu := s.vehicleLock(vehicleID)
	mu.Lock()
	defer mu.Unlock()
	rem, err := s.scheduler.Create(vehicleID, kind, dueKm, dueDate, risk)
	if err != nil {
		return models.Reminder{}, err
	}
	s.refreshHealth(vehicleID)
	s.archiveReminder(ctx, rem)
	return rem, nil
}

// MarkReminderDone archives a reminder.
func (s *Service) MarkReminderDone(ctx context.Context, reminderID string) error {
	rem, err := s.scheduler.Get(reminderID)
	if err != nil {
		return err
	}
	mu := s.vehicleLock(rem.VehicleID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.scheduler.MarkDone(reminderID); err != nil {
		return err
	}
	s.refreshHealth(rem.VehicleID)
	if rem, err = s.scheduler.Get(reminderID); err == nil {
		s.archiveReminder(ctx, rem)
	}
	return nil
}

// DeferReminder pushes a reminder's due point strictly later or farther.
func (s *Service) DeferReminder(ctx context.Context, reminderID string, newDueKm *int64, newDueDate *time.Time) (models.Reminder, error) {
	rem, err := s.scheduler.Get(reminderID)
	if err != nil {
		return models.Reminder{}, err
	}
	mu := s.vehicleLock(rem.VehicleID)
	mu.Lock()
	defer mu.Unlock()
	rem, err = s.scheduler.Defer(reminderID, newDueKm, newDueDate)
	if err != nil {
		return models.Reminder{}, err
	}
	s.refreshHealth(rem.VehicleID)
	s.archiveReminder(ctx, rem)
	return rem, nil
}

// Vehicle returns a single vehicle record.
func (s *Service) Vehicle(vehicleID string) (models.Vehicle, error) {
	return s.registry.Get(vehicleID)
}

// Vehicles returns all vehicles in registration order.
func (s *Service) Vehicles() []models.Vehicle {
	return s.registry.List()
}

// MaintenanceFor returns a vehicle's maintenance events, chronological.
func (s *Service) MaintenanceFor(vehicleID string) []models.MaintenanceEvent {
	return s.ledger.MaintenanceFor(vehicleID)
}

// FuelLogsFor returns a vehicle's fuel fills, chronological.
func (s *Service) FuelLogsFor(vehicleID string) []models.FuelLog {
	return s.ledger.FuelLogsFor(vehicleID)
}

// FuelLogsForDisplay returns a vehicle's fuel fills, most-recent-first.
func (s *Service) FuelLogsForDisplay(vehicleID string) []models.FuelLog {
	return s.ledger.FuelLogsForDisplay(vehicleID)
}

// AverageEconomy returns the mean km/L across defined fills, nil when none.
func (s *Service) AverageEconomy(vehicleID string) *float64 {
	return s.metrics.AverageEconomy(vehicleID)
}

// TotalSpend returns the vehicle's total ledger spend in cents.
func (s *Service) TotalSpend(vehicleID string) int64 {
	return s.metrics.TotalSpend(vehicleID)
}

// HealthBreakdown returns per-subsystem scores for a vehicle.
func (s *Service) HealthBreakdown(vehicleID string) (map[string]int, error) {
	return s.metrics.HealthBreakdown(vehicleID)
}

// RemindersOutlook returns pending reminders with their computed remaining
// distance, remaining days and risk as of the given time.
func (s *Service) RemindersOutlook(vehicleID string, asOf time.Time) ([]models.ReminderOutlook, error) {
	v, err := s.registry.Get(vehicleID)
	if err != nil {
		return nil, err
	}
	rems := s.scheduler.RemindersFor(vehicleID)
	out := make([]models.ReminderOutlook, 0, len(rems))
	for _, rem := range rems {
		out = append(out, models.ReminderOutlook{
			Reminder:      rem,
			KmRemaining:   s.scheduler.DistanceRemaining(rem, v),
			DaysRemaining: s.scheduler.DaysRemaining(rem, asOf),
			Risk:          s.scheduler.ClassifyRisk(rem, v, asOf),
		})
	}
	return out, nil
}

func (s *Service) refreshHealth(vehicleID string) {
	score, err := s.metrics.HealthScore(vehicleID)
	if err != nil {
		return
	}
	_ = s.registry.SetHealthScore(vehicleID, score)
}

func (s *Service) archiveVehicle(ctx context.Context, v models.Vehicle) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveVehicle(ctx, v); err != nil {
		log.WithError(err).WithField("vehicle_id", v.ID).Warn("archive write failed")
	}
}

func (s *Service) archiveMaintenance(ctx context.Context, ev models.MaintenanceEvent) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveMaintenance(ctx, ev); err != nil {
		log.WithError(err).WithField("event_id", ev.ID).Warn("archive write failed")
	}
}

func (s *Service) archiveFuelLog(ctx context.Context, fl models.FuelLog) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveFuelLog(ctx, fl); err != nil {
		log.WithError(err).WithField("fuel_log_id", fl.ID).Warn("archive write failed")
	}
}

func (s *Service) archiveReminder(ctx context.Context, rem models.Reminder) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveReminder(ctx, rem); err != nil {
		log.WithError(err).WithField("reminder_id", rem.ID).Warn("archive write failed")
	}
}
