package fleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

func newTestMetrics(t *testing.T) (*Metrics, *Ledger, *Scheduler, models.Vehicle) {
	t.Helper()

	registry := NewRegistry()
	v, err := registry.Register("ABC1D23", "Fiat", "Argo", 2021, 44000, "flex", models.UsageUrban)
	assert.NoError(t, err)

	ledger := NewLedger(registry)
	scheduler := NewScheduler(registry, nil)
	return NewMetrics(registry, ledger, scheduler, DefaultHealthWeights()), ledger, scheduler, v
}

func TestAverageEconomyUndefinedWithoutFullTanks(t *testing.T) {
	m, ledger, _, v := newTestMetrics(t)

	assert.Nil(t, m.AverageEconomy(v.ID))

	// A single fill has no prior baseline, economy stays undefined
	_, err := ledger.RecordFuelFill(v.ID, day(0), 40, 23900, 44200, true)
	assert.NoError(t, err)
	assert.Nil(t, m.AverageEconomy(v.ID))
}

func TestAverageEconomy(t *testing.T) {
	m, ledger, _, v := newTestMetrics(t)

	_, err := ledger.RecordFuelFill(v.ID, day(0), 40, 23900, 44200, true)
	assert.NoError(t, err)
	_, err = ledger.RecordFuelFill(v.ID, day(10), 42, 25100, 44680, true)
	assert.NoError(t, err)
	_, err = ledger.RecordFuelFill(v.ID, day(20), 45, 26300, 45150, true)
	assert.NoError(t, err)

	avg := m.AverageEconomy(v.ID)
	if assert.NotNil(t, avg) {
		want := (480.0/42.0 + 470.0/45.0) / 2
		assert.InDelta(t, want, *avg, 0.0001)
	}
}

func TestTotalSpend(t *testing.T) {
	m, ledger, _, v := newTestMetrics(t)

	// Empty ledger spends exactly zero
	assert.Equal(t, int64(0), m.TotalSpend(v.ID))

	_, err := ledger.RecordFuelFill(v.ID, day(0), 40, 23900, 44200, true)
	assert.NoError(t, err)
	_, err = ledger.RecordFuelFill(v.ID, day(10), 42, 25100, 44680, true)
	assert.NoError(t, err)
	_, err = ledger.RecordFuelFill(v.ID, day(20), 45, 26300, 45150, true)
	assert.NoError(t, err)
	_, err = ledger.RecordMaintenance(v.ID, "Oil change", day(21), 45150, 18900, "AutoCenter")
	assert.NoError(t, err)
	_, err = ledger.RecordMaintenance(v.ID, "Brake pads", day(22), 45150, 34700, "AutoCenter")
	assert.NoError(t, err)

	assert.Equal(t, int64(128900), m.TotalSpend(v.ID))
}

func TestHealthBreakdownFreshVehicle(t *testing.T) {
	m, _, _, v := newTestMetrics(t)

	b, err := m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, 100, b[SubsystemEngine])
	assert.Equal(t, 100, b[SubsystemBrakes])
	assert.Equal(t, 100, b[SubsystemTires])
	assert.Equal(t, 100, b[SubsystemDocuments])

	score, err := m.HealthScore(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, 100, score)
}

func TestHealthBreakdownUnknownVehicle(t *testing.T) {
	m, _, _, _ := newTestMetrics(t)

	_, err := m.HealthBreakdown("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWearDecaysWithDistance(t *testing.T) {
	m, _, _, v := newTestMetrics(t)

	assert.NoError(t, m.registry.UpdateOdometer(v.ID, 46000))

	b, err := m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	// 2000 km at one point per 200 km
	assert.Equal(t, 90, b[SubsystemEngine])
	assert.Equal(t, 90, b[SubsystemBrakes])
	assert.Equal(t, 90, b[SubsystemTires])
}

func TestCompletedServiceResetsItsSubsystem(t *testing.T) {
	m, ledger, _, v := newTestMetrics(t)

	_, err := ledger.RecordMaintenance(v.ID, "Oil change", day(0), 46000, 18900, "AutoCenter")
	assert.NoError(t, err)

	b, err := m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, 100, b[SubsystemEngine], "serviced at the current reading")
	assert.Equal(t, 90, b[SubsystemBrakes], "unrelated subsystems keep decaying")
	assert.Equal(t, 90, b[SubsystemTires])
}

func TestScheduledServiceDoesNotResetWear(t *testing.T) {
	m, ledger, _, v := newTestMetrics(t)

	assert.NoError(t, m.registry.UpdateOdometer(v.ID, 46000))
	_, err := ledger.ScheduleMaintenance(v.ID, "Oil change", day(60), 48000, 18900, "AutoCenter")
	assert.NoError(t, err)

	b, err := m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, 90, b[SubsystemEngine])
}

func TestDocumentScoreFollowsReminders(t *testing.T) {
	m, _, scheduler, v := newTestMetrics(t)

	soon := time.Now().AddDate(0, 0, 10)
	_, err := scheduler.Create(v.ID, "Licensing", nil, &soon, "")
	assert.NoError(t, err)

	b, err := m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, 60, b[SubsystemDocuments])

	overdue := time.Now().AddDate(0, 0, -3)
	_, err = scheduler.Create(v.ID, "IPVA", nil, &overdue, "")
	assert.NoError(t, err)

	b, err = m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, 30, b[SubsystemDocuments], "the worst document drives the score")
}

func TestCombineHealthRoundTrip(t *testing.T) {
	m, ledger, _, v := newTestMetrics(t)

	assert.NoError(t, m.registry.UpdateOdometer(v.ID, 45500))
	_, err := ledger.RecordMaintenance(v.ID, "Brake pads", day(0), 45000, 34700, "AutoCenter")
	assert.NoError(t, err)

	b, err := m.HealthBreakdown(v.ID)
	assert.NoError(t, err)
	score, err := m.HealthScore(v.ID)
	assert.NoError(t, err)
	assert.Equal(t, CombineHealth(b, DefaultHealthWeights()), score)
}

func TestCombineHealthNormalizesWeights(t *testing.T) {
	breakdown := map[string]int{
		SubsystemEngine:    80,
		SubsystemBrakes:    60,
		SubsystemTires:     90,
		SubsystemDocuments: 100,
	}

	proportional := HealthWeights{Engine: 7, Brakes: 5, Tires: 5, Documents: 3}
	assert.Equal(t,
		CombineHealth(breakdown, DefaultHealthWeights()),
		CombineHealth(breakdown, proportional))

	// Degenerate weights fall back to the defaults
	assert.Equal(t,
		CombineHealth(breakdown, DefaultHealthWeights()),
		CombineHealth(breakdown, HealthWeights{}))
}

func TestSubsystemForKeywords(t *testing.T) {
	testCases := []struct {
		kind string
		want string
	}{
		{"Oil change", SubsystemEngine},
		{"Spark plugs", SubsystemEngine},
		{"Air filter", SubsystemEngine},
		{"Brake pads", SubsystemBrakes},
		{"Tire rotation", SubsystemTires},
		{"Wheel alignment", SubsystemTires},
		{"Balancing", SubsystemTires},
		{"Windshield wipers", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, subsystemFor(tc.kind), tc.kind)
	}
}

func TestIsDocumentType(t *testing.T) {
	assert.True(t, isDocumentType("Licensing"))
	assert.True(t, isDocumentType("IPVA"))
	assert.True(t, isDocumentType("insurance renewal"))
	assert.True(t, isDocumentType("Annual inspection"))
	assert.False(t, isDocumentType("Oil change"))
}
