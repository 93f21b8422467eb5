package heuristic

import (
	"math/rand"
	"time"

	"github.com/steelroute/rakeflow/core/model"
)

// altPortProb is the chance a freshly initialized gene picks a non-primary
// allowed port.
const altPortProb = 0.15

// RunEvolution runs the evolutionary stage. A usable seed solution, when
// provided, is converted into one individual of generation zero to bias the
// search toward a known-good start.
func (r *Refiner) RunEvolution(seed *model.Solution) model.Solution {
	start := time.Now()
	rnd := r.src.Phase("evolution")

	pop := make([]individual, r.cfg.PopulationSize)
	for i := range pop {
		pop[i] = individual{genes: r.randomGenes(rnd)}
	}
	if seed != nil && seed.Status.Usable() {
		if genes := r.solutionToGenes(*seed); genes != nil {
			pop[0] = individual{genes: genes}
		}
	}
	r.evaluateAll(pop)

	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness < best.fitness {
			best = ind
		}
	}
	best = cloneIndividual(best)

	for gen := 0; gen < r.cfg.Generations; gen++ {
		offspring := make([]individual, r.cfg.PopulationSize)
		for i := range offspring {
			offspring[i] = cloneIndividual(r.tournament(pop, rnd))
		}

		for i := 0; i+1 < len(offspring); i += 2 {
			if rnd.Float64() < r.cfg.CrossoverProb {
				r.crossover(&offspring[i], &offspring[i+1], rnd)
			}
		}
		for i := range offspring {
			if rnd.Float64() < r.cfg.MutationProb {
				r.mutate(&offspring[i], rnd)
			}
		}

		r.evaluateAll(offspring)
		pop = offspring
		for _, ind := range pop {
			if ind.fitness < best.fitness {
				best = cloneIndividual(ind)
			}
		}
	}

	sol := model.NewSolution(model.StatusHeuristic, "genetic-algorithm")
	sol.Assignments = r.toAssignments(best.genes)
	sol.Objective = best.fitness
	sol.SolveTime = time.Since(start)
	sol.Generations = r.cfg.Generations
	sol.Population = r.cfg.PopulationSize
	sol.Seed = r.src.Root()
	r.log.Infof("evolution finished: best cost %.2f in %s", sol.Objective, sol.SolveTime)
	return sol
}

// randomGenes initializes one individual: per vessel a uniformly random
// compatible plant, the primary port with a small chance of an alternate,
// and a berth day within a week of ETA.
func (r *Refiner) randomGenes(rnd *rand.Rand) []Gene {
	vessels := r.tables.Vessels()
	genes := make([]Gene, 0, len(vessels))
	for _, v := range vessels {
		plants := r.tables.CompatiblePlants(v.CargoGrade)
		if len(plants) == 0 {
			continue
		}
		plant := plants[rnd.Intn(len(plants))]
		allowed := r.tables.AllowedPorts(v.ID)
		port := allowed[0]
		if len(allowed) > 1 && rnd.Float64() < altPortProb {
			port = allowed[rnd.Intn(len(allowed))]
		}
		genes = append(genes, Gene{
			VesselID: v.ID,
			PortID:   port,
			PlantID:  plant.ID,
			BerthDay: v.ETADay + rnd.Float64()*7,
		})
	}
	return genes
}

// solutionToGenes collapses a solution into one gene per vessel, keeping the
// largest cargo slice's routing when a vessel was split across plants.
func (r *Refiner) solutionToGenes(sol model.Solution) []Gene {
	byVessel := make(map[string]model.Assignment)
	for _, a := range sol.Assignments {
		if prev, ok := byVessel[a.VesselID]; !ok || a.CargoMT > prev.CargoMT {
			byVessel[a.VesselID] = a
		}
	}
	if len(byVessel) == 0 {
		return nil
	}
	genes := make([]Gene, 0, len(byVessel))
	for _, v := range r.tables.Vessels() {
		a, ok := byVessel[v.ID]
		if !ok {
			plants := r.tables.CompatiblePlants(v.CargoGrade)
			if len(plants) == 0 {
				continue
			}
			a = model.Assignment{VesselID: v.ID, PortID: v.PortID, PlantID: plants[0].ID, ScheduledDay: v.ETADay}
		}
		genes = append(genes, Gene{VesselID: v.ID, PortID: a.PortID, PlantID: a.PlantID, BerthDay: a.ScheduledDay})
	}
	return genes
}

// tournament picks the best of TournamentSize random individuals.
func (r *Refiner) tournament(pop []individual, rnd *rand.Rand) individual {
	best := pop[rnd.Intn(len(pop))]
	for i := 1; i < r.cfg.TournamentSize; i++ {
		cand := pop[rnd.Intn(len(pop))]
		if cand.fitness < best.fitness {
			best = cand
		}
	}
	return best
}

// crossover swaps a two-point slice of genes between equal-length parents.
func (r *Refiner) crossover(a, b *individual, rnd *rand.Rand) {
	if len(a.genes) != len(b.genes) || len(a.genes) <= 2 {
		return
	}
	p1 := 1 + rnd.Intn(len(a.genes)-2)
	p2 := p1 + rnd.Intn(len(a.genes)-p1)
	for i := p1; i < p2; i++ {
		a.genes[i], b.genes[i] = b.genes[i], a.genes[i]
	}
	a.valid = false
	b.valid = false
}

// mutate rewrites one random gene: its plant, berth time, port (biased back
// toward the primary), or plant and time together.
func (r *Refiner) mutate(ind *individual, rnd *rand.Rand) {
	if len(ind.genes) == 0 {
		return
	}
	i := rnd.Intn(len(ind.genes))
	g := ind.genes[i]
	v, err := r.tables.Vessel(g.VesselID)
	if err != nil {
		return
	}

	kind := [...]string{"plant", "time", "port", "plant_time"}[rnd.Intn(4)]

	if kind == "plant" || kind == "plant_time" {
		plants := r.tables.CompatiblePlants(v.CargoGrade)
		if len(plants) > 0 {
			g.PlantID = plants[rnd.Intn(len(plants))].ID
		}
	}
	if kind == "port" {
		allowed := r.tables.AllowedPorts(g.VesselID)
		var others []string
		for _, p := range allowed {
			if p != g.PortID {
				others = append(others, p)
			}
		}
		switch {
		case len(others) > 0 && rnd.Float64() < 0.5:
			g.PortID = v.PortID
		case len(others) > 0:
			g.PortID = others[rnd.Intn(len(others))]
		default:
			g.PortID = v.PortID
		}
	}
	if kind == "time" || kind == "plant_time" {
		g.BerthDay = v.ETADay + rnd.Float64()*10
	}

	ind.genes[i] = g
	ind.valid = false
}

func cloneIndividual(ind individual) individual {
	cp := ind
	cp.genes = make([]Gene, len(ind.genes))
	copy(cp.genes, ind.genes)
	return cp
}
