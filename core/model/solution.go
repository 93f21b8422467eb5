package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status tags the outcome of an optimization stage.
type Status string

const (
	StatusOptimal     Status = "Optimal"
	StatusTimeLimited Status = "TimeLimited"
	StatusInfeasible  Status = "Infeasible"
	StatusHeuristic   Status = "Heuristic"
	StatusError       Status = "Error"
)

// Usable reports whether the solution's assignments are worth consuming
// downstream (as a seed or for simulation).
func (s Status) Usable() bool {
	return s == StatusOptimal || s == StatusTimeLimited || s == StatusHeuristic
}

// Assignment routes a slice of one vessel's cargo through a port to a plant
// on a scheduled berth day.
type Assignment struct {
	VesselID      string  `json:"vessel_id"`
	PortID        string  `json:"port_id"`
	PlantID       string  `json:"plant_id"`
	CargoMT       float64 `json:"cargo_mt"`
	ScheduledDay  float64 `json:"scheduled_day"` // chosen berth day, >= vessel ETA
	BerthDay      float64 `json:"berth_day"`     // scheduled day plus the predicted inherent delay
	PlannedDay    float64 `json:"planned_day"`   // the vessel's ETA, demurrage baseline
	PredictedLag  float64 `json:"predicted_lag"` // predicted inherent pre-berthing delay in days
	RakesRequired int     `json:"rakes_required"`
}

// RakesFor computes the rake trips needed to move cargo at the given trip
// capacity.
func RakesFor(cargoMT, rakeCapacityMT float64) int {
	if rakeCapacityMT <= 0 || cargoMT <= 0 {
		return 0
	}
	return int(math.Ceil(cargoMT / rakeCapacityMT))
}

// Solution is the output of one optimization stage and the input to the next.
type Solution struct {
	RunID       string        `json:"run_id"`
	Status      Status        `json:"status"`
	Method      string        `json:"method"`
	Objective   float64       `json:"objective"`
	Assignments []Assignment  `json:"assignments"`
	SolveTime   time.Duration `json:"solve_time_ns"`
	Message     string        `json:"message,omitempty"` // diagnostics, populated on Error/Infeasible

	// Stage metadata. Zero values mean not applicable.
	Generations int     `json:"generations,omitempty"`
	Population  int     `json:"population,omitempty"`
	Iterations  int     `json:"iterations,omitempty"`
	Improvement float64 `json:"improvement,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
}

// NewSolution stamps a fresh run id on a stage result.
func NewSolution(status Status, method string) Solution {
	return Solution{RunID: uuid.NewString(), Status: status, Method: method}
}

// Clone deep-copies the solution so refiner stages can mutate freely.
func (s Solution) Clone() Solution {
	cp := s
	cp.Assignments = make([]Assignment, len(s.Assignments))
	copy(cp.Assignments, s.Assignments)
	return cp
}

// CargoByVessel sums assigned cargo per vessel, the conservation invariant's
// left-hand side.
func (s Solution) CargoByVessel() map[string]float64 {
	out := make(map[string]float64)
	for _, a := range s.Assignments {
		out[a.VesselID] += a.CargoMT
	}
	return out
}
