package cost

import (
	"math"
	"testing"

	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
)

func testTables(t *testing.T) *model.Tables {
	t.Helper()
	tables, err := model.NewTables(
		[]model.Vessel{
			{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", SecondaryPorts: "P2", DemurrageRate: 5000, CargoGrade: "IRON_ORE"},
		},
		[]model.Port{
			{ID: "P1", HandlingCostPerMT: 25, DailyCapacityMT: 50000, RakesPerDay: 8},
			{ID: "P2", HandlingCostPerMT: 22, DailyCapacityMT: 60000, RakesPerDay: 10},
		},
		[]model.Plant{
			{ID: "F1", DailyDemandMT: 8000, Quality: "IRON_ORE"},
			{ID: "F2", DailyDemandMT: 6000, Quality: "IRON_ORE"},
		},
		[]model.RailLink{
			{PortID: "P1", PlantID: "F1", CostPerMT: 100, TransitDays: 2},
			{PortID: "P2", PlantID: "F1", CostPerMT: 80, TransitDays: 1},
			// P1->F2 and P2->F2 deliberately missing.
		},
	)
	if err != nil {
		t.Fatalf("build tables: %v", err)
	}
	return tables
}

func TestPortHandling(t *testing.T) {
	m := NewModel(testTables(t), Config{})
	got, err := m.PortHandling(1000, "P1")
	if err != nil {
		t.Fatalf("port handling: %v", err)
	}
	if got != 25000 {
		t.Fatalf("handling = %f, want 25000", got)
	}
	if _, err := m.PortHandling(1000, "NOPE"); err == nil {
		t.Fatalf("expected lookup error for unknown port")
	}
}

func TestRailRateFallbackPolicies(t *testing.T) {
	tables := testTables(t)

	mean := NewModel(tables, Config{MissingRailCost: DatasetMean})
	rate, err := mean.RailRate("P1", "F2")
	if err != nil {
		t.Fatalf("rail rate: %v", err)
	}
	if want := (100.0 + 80.0) / 2; math.Abs(rate-want) > 1e-9 {
		t.Fatalf("dataset-mean fallback = %f, want %f", rate, want)
	}

	fixed := NewModel(tables, Config{MissingRailCost: FixedDefault})
	rate, err = fixed.RailRate("P1", "F2")
	if err != nil {
		t.Fatalf("rail rate: %v", err)
	}
	if rate != DefaultRailCostPerMT {
		t.Fatalf("fixed fallback = %f, want %f", rate, DefaultRailCostPerMT)
	}

	// Known pairs never trigger the fallback.
	rate, err = fixed.RailRate("P1", "F1")
	if err != nil {
		t.Fatalf("rail rate: %v", err)
	}
	if rate != 100 {
		t.Fatalf("known pair rate = %f, want 100", rate)
	}

	// Unknown ids are lookup failures, not policy decisions.
	if _, err := mean.RailRate("NOPE", "F1"); err == nil {
		t.Fatalf("expected lookup error for unknown port")
	}
	if _, err := mean.RailRate("P1", "NOPE"); err == nil {
		t.Fatalf("expected lookup error for unknown plant")
	}
}

func TestDemurrage(t *testing.T) {
	m := NewModel(testTables(t), Config{})
	v, _ := testTables(t).Vessel("V1")

	// Two days late at rate 5000 costs 10000.
	if got := m.Demurrage(v, 7, 5); got != 10000 {
		t.Fatalf("demurrage = %f, want 10000", got)
	}
	// Early or on-time berthing accrues nothing.
	if got := m.Demurrage(v, 5, 5); got != 0 {
		t.Fatalf("on-time demurrage = %f, want 0", got)
	}
	if got := m.Demurrage(v, 4, 5); got != 0 {
		t.Fatalf("early demurrage = %f, want 0", got)
	}
}

func TestSecondaryPenaltyPolicy(t *testing.T) {
	m := NewModel(testTables(t), Config{})
	a := model.Assignment{VesselID: "V1", PortID: "P2", PlantID: "F1", CargoMT: 1000, BerthDay: 1, PlannedDay: 1}

	withPenalty, err := m.AssignmentCost(a, true)
	if err != nil {
		t.Fatalf("assignment cost: %v", err)
	}
	if withPenalty.SecondaryPenalty != 50000 {
		t.Fatalf("secondary penalty = %f, want 50000", withPenalty.SecondaryPenalty)
	}

	without, err := m.AssignmentCost(a, false)
	if err != nil {
		t.Fatalf("assignment cost: %v", err)
	}
	if without.SecondaryPenalty != 0 {
		t.Fatalf("penalty applied despite applySecondary=false")
	}

	// Primary port never accrues the penalty.
	a.PortID = "P1"
	primary, err := m.AssignmentCost(a, true)
	if err != nil {
		t.Fatalf("assignment cost: %v", err)
	}
	if primary.SecondaryPenalty != 0 {
		t.Fatalf("penalty applied for the primary port")
	}
}

func TestAssignmentCostRejectsNonPositiveCargo(t *testing.T) {
	m := NewModel(testTables(t), Config{})
	a := model.Assignment{VesselID: "V1", PortID: "P1", PlantID: "F1", CargoMT: 0}
	if _, err := m.AssignmentCost(a, false); err == nil {
		t.Fatalf("expected error for zero cargo")
	}
}

func TestPlanCostSumsComponents(t *testing.T) {
	m := NewModel(testTables(t), Config{})
	plan := []model.Assignment{
		{VesselID: "V1", PortID: "P1", PlantID: "F1", CargoMT: 1000, BerthDay: 3, PlannedDay: 1},
		{VesselID: "V1", PortID: "P1", PlantID: "F1", CargoMT: 500, BerthDay: 1, PlannedDay: 1},
	}
	b, err := m.PlanCost(plan, false)
	if err != nil {
		t.Fatalf("plan cost: %v", err)
	}
	if b.PortHandling != 1500*25 {
		t.Fatalf("handling = %f", b.PortHandling)
	}
	if b.RailTransport != 1500*100 {
		t.Fatalf("rail = %f", b.RailTransport)
	}
	if b.Demurrage != 2*5000 {
		t.Fatalf("demurrage = %f", b.Demurrage)
	}
	if got, want := b.Total(), 1500*25+1500*100+2*5000.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("total = %f, want %f", got, want)
	}
}

func TestTransitDaysDefault(t *testing.T) {
	m := NewModel(testTables(t), Config{})
	if got := m.TransitDays("P2", "F1"); got != 1 {
		t.Fatalf("transit = %d, want 1", got)
	}
	if got := m.TransitDays("P1", "F2"); got != 2 {
		t.Fatalf("missing-link transit = %d, want 2", got)
	}
}

func TestDelayEstimatorDeterministicAndBounded(t *testing.T) {
	est := NewDelayEstimator(rng.New(2025))
	a := est.PredictDelayDays("V1", "P1")
	b := est.PredictDelayDays("V1", "P1")
	if a != b {
		t.Fatalf("prediction not deterministic: %f vs %f", a, b)
	}
	if a < 0 || a > 3 {
		t.Fatalf("prediction %f outside [0, 3] days", a)
	}
	if est.PredictDelayDays("V1", "P2") == a && est.PredictDelayDays("V2", "P1") == a {
		t.Fatalf("predictions do not vary across pairs")
	}

	// A different root seed shifts the predictions.
	other := NewDelayEstimator(rng.New(1))
	if other.PredictDelayDays("V1", "P1") == a {
		t.Fatalf("prediction independent of the seed")
	}
}

func TestConfigValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.RakeCapacityMT != 5000 || c.SecondaryPenaltyPerMT != 50 || c.MissingRailCost != DatasetMean {
		t.Fatalf("unexpected defaults: %+v", c)
	}

	c.MissingRailCost = "bogus"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected policy validation error")
	}
}
