package fleet

import (
	"math"
	"strings"
	"time"

	"github.com/superdrive/vehicle-ledger/internal/models"
)

// Subsystem names reported by HealthBreakdown.
const (
	SubsystemEngine    = "engine"
	SubsystemBrakes    = "brakes"
	SubsystemTires     = "tires"
	SubsystemDocuments = "documents"
)

// Wear subsystems lose one point per this many kilometers without service.
const defaultDecayKmPerPoint = 200.0

const documentDueSoonDays = 30

// HealthWeights is the relative weight of each subsystem in the overall
// health score. Weights are normalized before use, so they only need to be
// proportional.
type HealthWeights struct {
	Engine    float64
	Brakes    float64
	Tires     float64
	Documents float64
}

// DefaultHealthWeights returns the weighting used when none is configured.
func DefaultHealthWeights() HealthWeights {
	return HealthWeights{Engine: 0.35, Brakes: 0.25, Tires: 0.25, Documents: 0.15}
}

func (w HealthWeights) normalized() HealthWeights {
	sum := w.Engine + w.Brakes + w.Tires + w.Documents
	if sum <= 0 {
		return DefaultHealthWeights()
	}
	return HealthWeights{
		Engine:    w.Engine / sum,
		Brakes:    w.Brakes / sum,
		Tires:     w.Tires / sum,
		Documents: w.Documents / sum,
	}
}

// Metrics derives fuel economy, total spend and health figures from ledger
// snapshots. It holds no mutable state of its own.
type Metrics struct {
	registry  *Registry
	ledger    *Ledger
	scheduler *Scheduler
	weights   HealthWeights
	decay     float64
	now       func() time.Time
}

// NewMetrics creates a metrics engine over the given stores.
func NewMetrics(registry *Registry, ledger *Ledger, scheduler *Scheduler, weights HealthWeights) *Metrics {
	return &Metrics{
		registry:  registry,
		ledger:    ledger,
		scheduler: scheduler,
		weights:   weights.normalized(),
		decay:     defaultDecayKmPerPoint,
		now:       time.Now,
	}
}

// AverageEconomy is the arithmetic mean of the vehicle's defined km/L values.
// Nil means no economy is measurable yet, which is not the same as zero.
func (m *Metrics) AverageEconomy(vehicleID string) *float64 {
	var sum float64
	var n int
	for _, fl := range m.ledger.FuelLogsFor(vehicleID) {
		if fl.Kml != nil {
			sum += *fl.Kml
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// TotalSpend sums every maintenance and fuel price for the vehicle, in cents.
// An empty ledger spends a well-defined zero.
func (m *Metrics) TotalSpend(vehicleID string) int64 {
	var total int64
	for _, ev := range m.ledger.MaintenanceFor(vehicleID) {
		total += ev.PriceCents
	}
	for _, fl := range m.ledger.FuelLogsFor(vehicleID) {
		total += fl.PriceCents
	}
	return total
}

// HealthBreakdown scores each subsystem in [0, 100]. Wear subsystems decay
// with kilometers driven since their last completed service; the documents
// score follows the vehicle's document reminders.
func (m *Metrics) HealthBreakdown(vehicleID string) (map[string]int, error) {
	v, err := m.registry.Get(vehicleID)
	if err != nil {
		return nil, err
	}
	events := m.ledger.MaintenanceFor(vehicleID)
	return map[string]int{
		SubsystemEngine:    m.wearScore(v, events, SubsystemEngine),
		SubsystemBrakes:    m.wearScore(v, events, SubsystemBrakes),
		SubsystemTires:     m.wearScore(v, events, SubsystemTires),
		SubsystemDocuments: m.documentScore(vehicleID),
	}, nil
}

// HealthScore recombines the breakdown with the configured weights. Storing
// this value on the vehicle keeps the breakdown and the headline score in
// agreement.
func (m *Metrics) HealthScore(vehicleID string) (int, error) {
	b, err := m.HealthBreakdown(vehicleID)
	if err != nil {
		return 0, err
	}
	return CombineHealth(b, m.weights), nil
}

// CombineHealth folds a breakdown into a single score using the given
// weights.
func CombineHealth(breakdown map[string]int, weights HealthWeights) int {
	w := weights.normalized()
	s := w.Engine*float64(breakdown[SubsystemEngine]) +
		w.Brakes*float64(breakdown[SubsystemBrakes]) +
		w.Tires*float64(breakdown[SubsystemTires]) +
		w.Documents*float64(breakdown[SubsystemDocuments])
	return int(math.Round(s))
}

func (m *Metrics) wearScore(v models.Vehicle, events []models.MaintenanceEvent, subsystem string) int {
	lastServicedAt := v.FirstOdoKm
	for _, ev := range events {
		if ev.Status != models.MaintenanceCompleted {
			continue
		}
		if subsystemFor(ev.Type) != subsystem {
			continue
		}
		if ev.OdoKm > lastServicedAt {
			lastServicedAt = ev.OdoKm
		}
	}
	kmSince := float64(v.OdoKm - lastServicedAt)
	return clampScore(100 - int(math.Round(kmSince/m.decay)))
}

func (m *Metrics) documentScore(vehicleID string) int {
	score := 100
	for _, rem := range m.scheduler.RemindersFor(vehicleID) {
		if !isDocumentType(rem.Type) || rem.DueDate == nil {
			continue
		}
		days := ceilDays(m.now(), *rem.DueDate)
		s := 95
		switch {
		case days <= 0:
			s = 30
		case days <= documentDueSoonDays:
			s = 60
		}
		if s < score {
			score = s
		}
	}
	return score
}

// subsystemFor maps a free-text service type onto a wear subsystem. Types
// that match nothing count toward no subsystem.
func subsystemFor(kind string) string {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "brake"):
		return SubsystemBrakes
	case strings.Contains(k, "tire"), strings.Contains(k, "tyre"),
		strings.Contains(k, "rotation"), strings.Contains(k, "balanc"),
		strings.Contains(k, "align"):
		return SubsystemTires
	case strings.Contains(k, "oil"), strings.Contains(k, "engine"),
		strings.Contains(k, "spark"), strings.Contains(k, "filter"):
		return SubsystemEngine
	}
	return ""
}

func isDocumentType(kind string) bool {
	k := strings.ToLower(kind)
	for _, marker := range []string{"document", "licen", "insur", "registration", "tax", "ipva", "inspection"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
