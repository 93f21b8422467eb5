package heuristic

import (
	"math"
	"math/rand"
	"time"

	"github.com/steelroute/rakeflow/core/model"
)

// RunAnnealing refines an initial solution by simulated annealing: each
// iteration perturbs one assignment, accepts improvements unconditionally
// and regressions with probability exp(-Δ/T), and cools geometrically. The
// best-seen plan is tracked throughout, so the result never regresses below
// any intermediate state.
func (r *Refiner) RunAnnealing(initial model.Solution) model.Solution {
	start := time.Now()
	rnd := r.src.Phase("annealing")

	current := make([]model.Assignment, len(initial.Assignments))
	copy(current, initial.Assignments)
	currentCost := r.evaluate(current)

	best := make([]model.Assignment, len(current))
	copy(best, current)
	bestCost := currentCost

	temp := r.cfg.InitialTemp
	for it := 0; it < r.cfg.MaxIterations; it++ {
		neighbor := r.neighbor(current, rnd)
		neighborCost := r.evaluate(neighbor)

		switch {
		case neighborCost < currentCost:
			current = neighbor
			currentCost = neighborCost
			if currentCost < bestCost {
				best = make([]model.Assignment, len(current))
				copy(best, current)
				bestCost = currentCost
			}
		case temp > 0 && rnd.Float64() < math.Exp(-(neighborCost-currentCost)/temp):
			current = neighbor
			currentCost = neighborCost
		}
		temp *= r.cfg.CoolingRate
	}

	sol := model.NewSolution(model.StatusHeuristic, "simulated-annealing")
	sol.Assignments = best
	sol.Objective = bestCost
	sol.SolveTime = time.Since(start)
	sol.Iterations = r.cfg.MaxIterations
	sol.Improvement = initial.Objective - bestCost
	sol.Seed = r.src.Root()
	r.log.Infof("annealing finished: best cost %.2f (improvement %.2f) in %s",
		bestCost, sol.Improvement, sol.SolveTime)
	return sol
}

// neighbor perturbs one randomly chosen assignment: a different compatible
// plant, a different allowed port (biased back toward the primary), or a
// berth-day shift of up to two days bounded below by ETA.
func (r *Refiner) neighbor(assignments []model.Assignment, rnd *rand.Rand) []model.Assignment {
	out := make([]model.Assignment, len(assignments))
	copy(out, assignments)
	if len(out) == 0 {
		return out
	}

	i := rnd.Intn(len(out))
	a := out[i]
	v, err := r.tables.Vessel(a.VesselID)
	if err != nil {
		return out
	}

	switch [...]string{"plant", "time", "port"}[rnd.Intn(3)] {
	case "plant":
		plants := r.tables.CompatiblePlants(v.CargoGrade)
		var others []string
		for _, pl := range plants {
			if pl.ID != a.PlantID {
				others = append(others, pl.ID)
			}
		}
		if len(others) > 0 {
			a.PlantID = others[rnd.Intn(len(others))]
		}
	case "port":
		allowed := r.tables.AllowedPorts(a.VesselID)
		var others []string
		for _, p := range allowed {
			if p != a.PortID {
				others = append(others, p)
			}
		}
		chosen := a.PortID
		switch {
		case len(others) > 0 && rnd.Float64() < 0.5:
			chosen = v.PortID
		case len(others) > 0:
			chosen = others[rnd.Intn(len(others))]
		}
		if chosen != a.PortID {
			a.PortID = chosen
			a.PredictedLag = r.delayFor(a.VesselID, chosen)
			a.BerthDay = a.ScheduledDay + a.PredictedLag
		}
	case "time":
		day := math.Max(v.ETADay, a.ScheduledDay+(rnd.Float64()*4-2))
		a.ScheduledDay = day
		a.BerthDay = day + a.PredictedLag
	}

	out[i] = a
	return out
}
