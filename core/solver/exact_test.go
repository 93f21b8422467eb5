package solver

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
)

func buildSolver(t *testing.T, vessels []model.Vessel, ports []model.Port, plants []model.Plant, links []model.RailLink, cfg Config) *ExactSolver {
	t.Helper()
	tables, err := model.NewTables(vessels, ports, plants, links)
	if err != nil {
		t.Fatalf("build tables: %v", err)
	}
	costs := cost.NewModel(tables, cost.Config{})
	est := cost.NewDelayEstimator(rng.New(2025))
	return New(tables, costs, est, cfg, nil)
}

func singleVesselSolver(t *testing.T) *ExactSolver {
	return buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 2, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50, TransitDays: 1}},
		Config{},
	)
}

func TestSolveSingleVesselOptimal(t *testing.T) {
	sol := singleVesselSolver(t).Solve(context.Background())
	if sol.Status != model.StatusOptimal {
		t.Fatalf("status = %s (%s)", sol.Status, sol.Message)
	}
	if len(sol.Assignments) != 1 {
		t.Fatalf("assignments = %d, want 1", len(sol.Assignments))
	}
	a := sol.Assignments[0]
	if a.PortID != "P1" || a.PlantID != "F1" {
		t.Fatalf("routed %s via %s", a.PlantID, a.PortID)
	}
	if a.ScheduledDay != 2 {
		t.Fatalf("scheduled day = %f, want 2", a.ScheduledDay)
	}
	// Zero demurrage rate, so the objective is handling plus rail exactly.
	want := 20000*10.0 + 20000*50.0
	if math.Abs(sol.Objective-want) > 1e-6 {
		t.Fatalf("objective = %f, want %f", sol.Objective, want)
	}
}

func TestSolveTwoVesselsOptimal(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{
			{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"},
			{ID: "V2", CargoMT: 25000, ETADay: 2, PortID: "P1", CargoGrade: "IRON_ORE"},
		},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 100000, RakesPerDay: 5}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 5000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50, TransitDays: 1}},
		Config{},
	)
	sol := s.Solve(context.Background())
	if sol.Status != model.StatusOptimal {
		t.Fatalf("status = %s (%s)", sol.Status, sol.Message)
	}

	byVessel := sol.CargoByVessel()
	if math.Abs(byVessel["V1"]-20000) > 1e-6 || math.Abs(byVessel["V2"]-25000) > 1e-6 {
		t.Fatalf("cargo split off: %+v", byVessel)
	}
	// Both vessels berth at their ETA within daily capacity and the five-rake
	// budget, so the objective is handling plus rail with zero demurrage.
	want := 45000*10.0 + 45000*50.0
	if math.Abs(sol.Objective-want) > 1e-6 {
		t.Fatalf("objective = %f, want %f", sol.Objective, want)
	}
	for _, a := range sol.Assignments {
		v, err := s.tables.Vessel(a.VesselID)
		if err != nil {
			t.Fatalf("vessel %s: %v", a.VesselID, err)
		}
		if a.ScheduledDay != v.ETADay {
			t.Fatalf("vessel %s scheduled day %f, want ETA %f", a.VesselID, a.ScheduledDay, v.ETADay)
		}
	}
}

func TestSolveSplitsAcrossPlants(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{
			{ID: "F1", DailyDemandMT: 500, Quality: "IRON_ORE"},  // 15000 over the horizon
			{ID: "F2", DailyDemandMT: 1000, Quality: "IRON_ORE"}, // 30000 over the horizon
		},
		[]model.RailLink{
			{PortID: "P1", PlantID: "F1", CostPerMT: 50},
			{PortID: "P1", PlantID: "F2", CostPerMT: 70},
		},
		Config{},
	)
	sol := s.Solve(context.Background())
	if sol.Status != model.StatusOptimal {
		t.Fatalf("status = %s (%s)", sol.Status, sol.Message)
	}

	// Cargo conservation within tolerance.
	byVessel := sol.CargoByVessel()
	if math.Abs(byVessel["V1"]-20000) > 1e-6 {
		t.Fatalf("assigned cargo = %f, want 20000", byVessel["V1"])
	}

	// The cheaper plant fills to its demand bound, the rest overflows.
	byPlant := map[string]float64{}
	for _, a := range sol.Assignments {
		byPlant[a.PlantID] += a.CargoMT
	}
	if math.Abs(byPlant["F1"]-15000) > 1 {
		t.Fatalf("F1 cargo = %f, want 15000", byPlant["F1"])
	}
	if math.Abs(byPlant["F2"]-5000) > 1 {
		t.Fatalf("F2 cargo = %f, want 5000", byPlant["F2"])
	}
}

func TestSolveInfeasibleGrade(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "BAUXITE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50}},
		Config{},
	)
	sol := s.Solve(context.Background())
	if sol.Status != model.StatusInfeasible {
		t.Fatalf("status = %s, want Infeasible", sol.Status)
	}
}

func TestSolveInfeasibleCapacity(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 1000, RakesPerDay: 10}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50}},
		Config{},
	)
	sol := s.Solve(context.Background())
	if sol.Status != model.StatusInfeasible {
		t.Fatalf("status = %s, want Infeasible", sol.Status)
	}
}

func TestSolveInfeasibleRakes(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 1}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50}},
		Config{},
	)
	sol := s.Solve(context.Background())
	// 20000 MT needs 4 rakes, the port releases 1 per day.
	if sol.Status != model.StatusInfeasible {
		t.Fatalf("status = %s, want Infeasible", sol.Status)
	}
}

func TestSolveLPFailureFallsBackToCheapestPlant(t *testing.T) {
	orig := lpSolve
	lpSolve = func(costs, caps []float64, target float64) ([]float64, error) {
		return nil, ErrInfeasible
	}
	defer func() { lpSolve = orig }()

	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{
			{ID: "F1", DailyDemandMT: 500, Quality: "IRON_ORE"},
			{ID: "F2", DailyDemandMT: 1000, Quality: "IRON_ORE"},
		},
		[]model.RailLink{
			{PortID: "P1", PlantID: "F1", CostPerMT: 50},
			{PortID: "P1", PlantID: "F2", CostPerMT: 70},
		},
		Config{},
	)
	sol := s.Solve(context.Background())
	// A relaxed split breaks the demand bounds, so the plan is usable but
	// must not claim optimality.
	if sol.Status != model.StatusHeuristic {
		t.Fatalf("status = %s (%s), want Heuristic", sol.Status, sol.Message)
	}
	if !sol.Status.Usable() {
		t.Fatalf("fallback plan must stay usable")
	}
	if len(sol.Assignments) != 1 || sol.Assignments[0].PlantID != "F1" {
		t.Fatalf("expected whole cargo on the cheapest plant, got %+v", sol.Assignments)
	}
	if sol.Assignments[0].CargoMT != 20000 {
		t.Fatalf("fallback cargo = %f, want 20000", sol.Assignments[0].CargoMT)
	}
}

func TestSolveMapsPanicToError(t *testing.T) {
	orig := lpSolve
	lpSolve = func(costs, caps []float64, target float64) ([]float64, error) {
		panic("simplex blew up")
	}
	defer func() { lpSolve = orig }()

	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 20000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{
			{ID: "F1", DailyDemandMT: 500, Quality: "IRON_ORE"},
			{ID: "F2", DailyDemandMT: 1000, Quality: "IRON_ORE"},
		},
		[]model.RailLink{
			{PortID: "P1", PlantID: "F1", CostPerMT: 50},
			{PortID: "P1", PlantID: "F2", CostPerMT: 70},
		},
		Config{},
	)
	sol := s.Solve(context.Background())
	if sol.Status != model.StatusError {
		t.Fatalf("status = %s, want Error", sol.Status)
	}
	if len(sol.Assignments) != 0 {
		t.Fatalf("error solution carries assignments")
	}
}

func TestSolveTimeLimited(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	sol := singleVesselSolver(t).Solve(ctx)
	if sol.Status != model.StatusTimeLimited {
		t.Fatalf("status = %s, want TimeLimited", sol.Status)
	}
}

func TestSolvePlantSplit(t *testing.T) {
	xs, err := solvePlantSplit([]float64{10, 5}, []float64{30000, 20000}, 40000)
	if err != nil {
		t.Fatalf("lp: %v", err)
	}
	var sum float64
	for i := 0; i < 2; i++ {
		sum += xs[i]
	}
	if math.Abs(sum-40000) > 1e-3 {
		t.Fatalf("split sums to %f, want 40000", sum)
	}
	// The cheaper plant saturates its bound.
	if math.Abs(xs[1]-20000) > 1e-3 {
		t.Fatalf("cheap plant allocation = %f, want 20000", xs[1])
	}
}

func TestSolvePlantSplitHonorsSlackBounds(t *testing.T) {
	// Three plants with slack on the mid-priced one; the optimum fills the
	// cheapest to its cap and routes the rest to the next cheapest, with no
	// negative components leaking into the split.
	xs, err := solvePlantSplit([]float64{10, 20, 30}, []float64{3000, 10000, 10000}, 5000)
	if err != nil {
		t.Fatalf("lp: %v", err)
	}
	if len(xs) != 3 {
		t.Fatalf("split has %d components, want 3", len(xs))
	}
	var sum float64
	for i, x := range xs {
		if x < -1e-6 {
			t.Fatalf("negative allocation xs[%d] = %f", i, x)
		}
		sum += x
	}
	if math.Abs(sum-5000) > 1e-3 {
		t.Fatalf("split sums to %f, want 5000", sum)
	}
	if math.Abs(xs[0]-3000) > 1e-3 || math.Abs(xs[1]-2000) > 1e-3 {
		t.Fatalf("split = %v, want [3000 2000 0]", xs)
	}
}

func TestSolveThreePlantSplitStaysBounded(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 5000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{
			{ID: "F1", DailyDemandMT: 3000, Quality: "IRON_ORE"},
			{ID: "F2", DailyDemandMT: 10000, Quality: "IRON_ORE"},
			{ID: "F3", DailyDemandMT: 10000, Quality: "IRON_ORE"},
		},
		[]model.RailLink{
			{PortID: "P1", PlantID: "F1", CostPerMT: 10},
			{PortID: "P1", PlantID: "F2", CostPerMT: 20},
			{PortID: "P1", PlantID: "F3", CostPerMT: 30},
		},
		Config{TimeHorizonDays: 1},
	)
	sol := s.Solve(context.Background())
	if sol.Status != model.StatusOptimal {
		t.Fatalf("status = %s (%s)", sol.Status, sol.Message)
	}

	byPlant := map[string]float64{}
	for _, a := range sol.Assignments {
		byPlant[a.PlantID] += a.CargoMT
	}
	// F1's one-day demand caps it at 3000; the remainder goes to F2.
	if math.Abs(byPlant["F1"]-3000) > 1 {
		t.Fatalf("F1 cargo = %f, want 3000", byPlant["F1"])
	}
	if math.Abs(byPlant["F2"]-2000) > 1 {
		t.Fatalf("F2 cargo = %f, want 2000", byPlant["F2"])
	}
	if byPlant["F3"] > 1 {
		t.Fatalf("F3 cargo = %f, want 0", byPlant["F3"])
	}
}

func TestSolvePlantSplitInfeasible(t *testing.T) {
	if _, err := solvePlantSplit([]float64{10}, []float64{1000}, 40000); err == nil {
		t.Fatalf("expected infeasible LP error")
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.TimeHorizonDays != 30 || c.TimeLimitSeconds != 300 || c.SolverName != "simplex" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	c.TimeHorizonDays = 0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected horizon validation error")
	}
}
