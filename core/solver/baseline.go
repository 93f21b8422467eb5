package solver

import (
	"math"
	"sort"
	"time"

	"github.com/steelroute/rakeflow/core/model"
)

// baselineHandlingDays is the fixed berth occupancy assumed per vessel by the
// FCFS baseline. It is deliberately slower than an optimized schedule.
const baselineHandlingDays = 1.5

// Baseline builds the deterministic first-come-first-served benchmark: sort
// vessels by ETA, send each to the compatible plant with the highest demand,
// and berth it no earlier than the port becomes free. The baseline ignores
// capacity and rake ceilings; it exists for comparison, not feasibility.
func (s *ExactSolver) Baseline() model.Solution {
	start := time.Now()
	sol := model.NewSolution(model.StatusHeuristic, "fcfs-baseline")

	vessels := s.tables.Vessels()
	sort.SliceStable(vessels, func(i, j int) bool {
		if vessels[i].ETADay != vessels[j].ETADay {
			return vessels[i].ETADay < vessels[j].ETADay
		}
		return vessels[i].ID < vessels[j].ID
	})

	portFree := make(map[string]float64)
	rakeCap := s.costs.RakeCapacityMT()
	var objective float64

	for _, v := range vessels {
		plants := s.tables.CompatiblePlants(v.CargoGrade)
		if len(plants) == 0 {
			continue
		}
		target := plants[0]
		for _, pl := range plants[1:] {
			if pl.DailyDemandMT > target.DailyDemandMT {
				target = pl
			}
		}

		if _, ok := portFree[v.PortID]; !ok {
			portFree[v.PortID] = v.ETADay
		}
		delay := s.est.PredictDelayDays(v.ID, v.PortID)
		arrival := v.ETADay + delay
		actualBerth := math.Max(arrival, portFree[v.PortID])
		portFree[v.PortID] = actualBerth + baselineHandlingDays

		a := model.Assignment{
			VesselID:      v.ID,
			PortID:        v.PortID,
			PlantID:       target.ID,
			CargoMT:       v.CargoMT,
			ScheduledDay:  math.Ceil(actualBerth),
			BerthDay:      actualBerth,
			PlannedDay:    v.ETADay,
			PredictedLag:  delay,
			RakesRequired: model.RakesFor(v.CargoMT, rakeCap),
		}
		sol.Assignments = append(sol.Assignments, a)

		b, err := s.costs.AssignmentCost(a, false)
		if err != nil {
			sol.Status = model.StatusError
			sol.Message = err.Error()
			sol.SolveTime = time.Since(start)
			return sol
		}
		objective += b.Total()
	}

	sol.Objective = objective
	sol.SolveTime = time.Since(start)
	return sol
}
