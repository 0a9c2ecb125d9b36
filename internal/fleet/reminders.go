package fleet

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// RiskWindow holds the near-term and warning thresholds for one usage
// category. A reminder within the near window (or overdue) is high risk,
// within the warning window medium, otherwise low.
type RiskWindow struct {
	NearKm   int64
	WarnKm   int64
	NearDays int
	WarnDays int
}

// RiskPolicy maps usage categories to their classification thresholds.
type RiskPolicy map[models.Usage]RiskWindow

// DefaultRiskPolicy returns the thresholds used when none are configured.
// Highway vehicles burn through kilometers faster, so their windows are wider.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		models.UsageUrban:   {NearKm: 1000, WarnKm: 3000, NearDays: 7, WarnDays: 30},
		models.UsageHighway: {NearKm: 2000, WarnKm: 5000, NearDays: 7, WarnDays: 30},
		models.UsageMixed:   {NearKm: 1500, WarnKm: 4000, NearDays: 7, WarnDays: 30},
	}
}

// Scheduler tracks upcoming obligations per vehicle and classifies their
// risk against the vehicle's current state.
type Scheduler struct {
	mu        sync.RWMutex
	registry  *Registry
	items     map[string]*models.Reminder
	byVehicle map[string][]string
	policy    RiskPolicy
	now       func() time.Time
}

// NewScheduler creates a scheduler backed by the given registry. A nil
// policy falls back to DefaultRiskPolicy.
func NewScheduler(registry *Registry, policy RiskPolicy) *Scheduler {
	if policy == nil {
		policy = DefaultRiskPolicy()
	}
	return &Scheduler{
		registry:  registry,
		items:     make(map[string]*models.Reminder),
		byVehicle: make(map[string][]string),
		policy:    policy,
		now:       time.Now,
	}
}

// Create registers a new reminder. At least one due value is required; the
// risk may be pinned explicitly or left empty for threshold classification.
func (s *Scheduler) Create(vehicleID, kind string, dueKm *int64, dueDate *time.Time, risk models.Risk) (models.Reminder, error) {
	if _, err := s.registry.Get(vehicleID); err != nil {
		return models.Reminder{}, err
	}
	if kind == "" {
		return models.Reminder{}, fmt.Errorf("%w: reminder type is required", ErrValidation)
	}
	if dueKm == nil && dueDate == nil {
		return models.Reminder{}, fmt.Errorf("%w: a due odometer or a due date is required", ErrValidation)
	}
	if dueKm != nil && *dueKm < 0 {
		return models.Reminder{}, fmt.Errorf("%w: due odometer must be non-negative", ErrValidation)
	}
	if risk != "" && !models.IsValidRisk(risk) {
		return models.Reminder{}, fmt.Errorf("%w: unknown risk %q", ErrValidation, risk)
	}

	rem := &models.Reminder{
		ID:        uuid.NewString(),
		VehicleID: vehicleID,
		Type:      kind,
		DueKm:     dueKm,
		DueDate:   dueDate,
		Risk:      risk,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rem.ID] = rem
	s.byVehicle[vehicleID] = append(s.byVehicle[vehicleID], rem.ID)
	return *rem, nil
}

// DistanceRemaining is the kilometers until the reminder is due, nil when it
// has no due odometer. Negative means overdue.
func (s *Scheduler) DistanceRemaining(rem models.Reminder, v models.Vehicle) *int64 {
	if rem.DueKm == nil {
		return nil
	}
	d := *rem.DueKm - v.OdoKm
	return &d
}

// DaysRemaining is the whole days until the due date, rounded up, nil when
// the reminder has no due date. Negative means overdue.
func (s *Scheduler) DaysRemaining(rem models.Reminder, asOf time.Time) *int {
	if rem.DueDate == nil {
		return nil
	}
	d := ceilDays(asOf, *rem.DueDate)
	return &d
}

func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// ClassifyRisk honors an explicitly pinned risk; otherwise it derives one
// from the thresholds configured for the vehicle's usage category.
func (s *Scheduler) ClassifyRisk(rem models.Reminder, v models.Vehicle, asOf time.Time) models.Risk {
	if rem.Risk != "" {
		return rem.Risk
	}
	w, ok := s.policy[v.Usage]
	if !ok {
		w = DefaultRiskPolicy()[models.UsageMixed]
	}
	km := s.DistanceRemaining(rem, v)
	days := s.DaysRemaining(rem, asOf)
	switch {
	case km != nil && *km <= w.NearKm, days != nil && *days <= w.NearDays:
		return models.RiskHigh
	case km != nil && *km <= w.WarnKm, days != nil && *days <= w.WarnDays:
		return models.RiskMedium
	}
	return models.RiskLow
}

// MarkDone archives a reminder. Archived reminders behave as absent for
// further mutations.
func (s *Scheduler) MarkDone(reminderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rem, ok := s.items[reminderID]
	if !ok || rem.Done {
		return fmt.Errorf("%w: reminder %s", ErrNotFound, reminderID)
	}
	now := s.now()
	rem.Done = true
	rem.DoneAt = &now
	return nil
}

// Defer pushes a reminder's due point strictly later or farther. At least
// one new value is required; a value for a previously unset dimension is
// allowed since it cannot move backward.
func (s *Scheduler) Defer(reminderID string, newDueKm *int64, newDueDate *time.Time) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rem, ok := s.items[reminderID]
	if !ok || rem.Done {
		return models.Reminder{}, fmt.Errorf("%w: reminder %s", ErrNotFound, reminderID)
	}
	if newDueKm == nil && newDueDate == nil {
		return models.Reminder{}, fmt.Errorf("%w: nothing to defer to", ErrValidation)
	}
	if newDueKm != nil {
		if *newDueKm < 0 {
			return models.Reminder{}, fmt.Errorf("%w: due odometer must be non-negative", ErrValidation)
		}
		if rem.DueKm != nil && *newDueKm <= *rem.DueKm {
			return models.Reminder{}, fmt.Errorf("%w: due odometer %d km does not move past %d km", ErrValidation, *newDueKm, *rem.DueKm)
		}
	}
	if newDueDate != nil && rem.DueDate != nil && !newDueDate.After(*rem.DueDate) {
		return models.Reminder{}, fmt.Errorf("%w: due date does not move past the current one", ErrValidation)
	}
	if newDueKm != nil {
		rem.DueKm = newDueKm
	}
	if newDueDate != nil {
		rem.DueDate = newDueDate
	}
	return *rem, nil
}

// Get returns a copy of a reminder, archived ones included.
func (s *Scheduler) Get(reminderID string) (models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rem, ok := s.items[reminderID]
	if !ok {
		return models.Reminder{}, fmt.Errorf("%w: reminder %s", ErrNotFound, reminderID)
	}
	return *rem, nil
}

// RemindersFor returns the vehicle's pending reminders in creation order.
func (s *Scheduler) RemindersFor(vehicleID string) []models.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byVehicle[vehicleID]
	out := make([]models.Reminder, 0, len(ids))
	for _, id := range ids {
		if rem := s.items[id]; !rem.Done {
			out = append(out, *rem)
		}
	}
	return out
}
