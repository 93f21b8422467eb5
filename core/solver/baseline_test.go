package solver

import (
	"math"
	"testing"

	"github.com/steelroute/rakeflow/core/model"
)

func TestBaselinePicksHighestDemandPlant(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{{ID: "V1", CargoMT: 10000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"}},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{
			{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"},
			{ID: "F2", DailyDemandMT: 9000, Quality: "IRON_ORE"},
		},
		[]model.RailLink{
			{PortID: "P1", PlantID: "F1", CostPerMT: 50},
			{PortID: "P1", PlantID: "F2", CostPerMT: 70},
		},
		Config{},
	)
	sol := s.Baseline()
	if sol.Status != model.StatusHeuristic {
		t.Fatalf("status = %s, want Heuristic", sol.Status)
	}
	if sol.Method != "fcfs-baseline" {
		t.Fatalf("method = %s", sol.Method)
	}
	if len(sol.Assignments) != 1 || sol.Assignments[0].PlantID != "F2" {
		t.Fatalf("expected F2 (highest demand), got %+v", sol.Assignments)
	}
}

func TestBaselineSerializesPortAccess(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{
			{ID: "V1", CargoMT: 10000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"},
			{ID: "V2", CargoMT: 10000, ETADay: 1, PortID: "P1", CargoGrade: "IRON_ORE"},
		},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50}},
		Config{},
	)
	sol := s.Baseline()
	if len(sol.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(sol.Assignments))
	}
	first, second := sol.Assignments[0], sol.Assignments[1]
	if gap := second.BerthDay - first.BerthDay; gap < baselineHandlingDays-1e-9 {
		t.Fatalf("second berth only %f days after first, want >= %f", gap, baselineHandlingDays)
	}
}

func TestBaselineConservesCargo(t *testing.T) {
	s := singleVesselSolver(t)
	sol := s.Baseline()
	byVessel := sol.CargoByVessel()
	if math.Abs(byVessel["V1"]-20000) > 1e-6 {
		t.Fatalf("assigned cargo = %f, want 20000", byVessel["V1"])
	}
	if sol.Objective <= 0 {
		t.Fatalf("objective = %f, want positive", sol.Objective)
	}
}

func TestBaselineSkipsUnmatchableVessels(t *testing.T) {
	s := buildSolver(t,
		[]model.Vessel{
			{ID: "V1", CargoMT: 10000, ETADay: 1, PortID: "P1", CargoGrade: "BAUXITE"},
			{ID: "V2", CargoMT: 10000, ETADay: 2, PortID: "P1", CargoGrade: "IRON_ORE"},
		},
		[]model.Port{{ID: "P1", HandlingCostPerMT: 10, DailyCapacityMT: 50000, RakesPerDay: 10}},
		[]model.Plant{{ID: "F1", DailyDemandMT: 2000, Quality: "IRON_ORE"}},
		[]model.RailLink{{PortID: "P1", PlantID: "F1", CostPerMT: 50}},
		Config{},
	)
	sol := s.Baseline()
	if len(sol.Assignments) != 1 || sol.Assignments[0].VesselID != "V2" {
		t.Fatalf("expected only V2 assigned, got %+v", sol.Assignments)
	}
}
