// Package heuristic implements the refinement stages: an evolutionary search
// over candidate dispatch plans, followed by simulated-annealing local
// search. Both stages share the cost model with the exact solver and fold
// capacity violations into fitness penalties, so they always return a usable
// plan.
package heuristic

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/logger"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
)

// Config holds the parameters of both refinement stages.
type Config struct {
	PopulationSize int     `json:"population_size" yaml:"population_size"`
	Generations    int     `json:"generations" yaml:"generations"`
	CrossoverProb  float64 `json:"crossover_prob" yaml:"crossover_prob"`
	MutationProb   float64 `json:"mutation_prob" yaml:"mutation_prob"`
	TournamentSize int     `json:"tournament_size" yaml:"tournament_size"`

	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
	InitialTemp   float64 `json:"initial_temp" yaml:"initial_temp"`
	CoolingRate   float64 `json:"cooling_rate" yaml:"cooling_rate"`

	// Workers bounds parallel fitness evaluation; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`

	CapacityPenaltyPerMT float64 `json:"capacity_penalty_per_mt" yaml:"capacity_penalty_per_mt"`
	RakePenaltyPerUnit   float64 `json:"rake_penalty_per_unit" yaml:"rake_penalty_per_unit"`
}

// SetDefaults applies the standard search parameters.
func (c *Config) SetDefaults() {
	if c.PopulationSize == 0 {
		c.PopulationSize = 50
	}
	if c.Generations == 0 {
		c.Generations = 100
	}
	if c.CrossoverProb == 0 {
		c.CrossoverProb = 0.7
	}
	if c.MutationProb == 0 {
		c.MutationProb = 0.2
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = 3
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = 1000
	}
	if c.InitialTemp == 0 {
		c.InitialTemp = 10000
	}
	if c.CoolingRate == 0 {
		c.CoolingRate = 0.95
	}
	if c.CapacityPenaltyPerMT == 0 {
		c.CapacityPenaltyPerMT = 50
	}
	if c.RakePenaltyPerUnit == 0 {
		c.RakePenaltyPerUnit = 10000
	}
}

// Validate checks the search parameters.
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return fmt.Errorf("population_size must be at least 2")
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return fmt.Errorf("cooling_rate must be in (0,1)")
	}
	if c.TournamentSize < 1 {
		return fmt.Errorf("tournament_size must be at least 1")
	}
	return nil
}

// Gene is one vessel's routing decision inside an individual.
type Gene struct {
	VesselID string
	PortID   string
	PlantID  string
	BerthDay float64
}

// individual is a candidate plan with its evaluated fitness. Lower is better.
type individual struct {
	genes   []Gene
	fitness float64
	valid   bool
}

// Refiner runs the evolutionary and annealing stages over one table set.
type Refiner struct {
	tables *model.Tables
	costs  *cost.Model
	cfg    Config
	log    logger.Logger
	src    rng.Source

	// predicted inherent delay per vessel per allowed port, in days
	delays map[string]map[string]float64
}

// New builds a refiner. The delay estimator is consulted once per
// (vessel, allowed port) pair so fitness evaluation stays RNG-free.
func New(tables *model.Tables, costs *cost.Model, est *cost.DelayEstimator, cfg Config, log logger.Logger, src rng.Source) *Refiner {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	delays := make(map[string]map[string]float64)
	for _, v := range tables.Vessels() {
		m := make(map[string]float64)
		for _, portID := range tables.AllowedPorts(v.ID) {
			m[portID] = est.PredictDelayDays(v.ID, portID)
		}
		delays[v.ID] = m
	}
	return &Refiner{tables: tables, costs: costs, cfg: cfg, log: log, src: src, delays: delays}
}

// delayFor returns the precomputed inherent delay, zero for unknown pairs.
func (r *Refiner) delayFor(vesselID, portID string) float64 {
	return r.delays[vesselID][portID]
}

// repair normalizes a gene so cost evaluation never fails: an out-of-set
// port snaps back to the primary, and the berth day is floored at ETA.
func (r *Refiner) repair(g Gene) Gene {
	v, err := r.tables.Vessel(g.VesselID)
	if err != nil {
		return g
	}
	allowed := r.tables.AllowedPorts(g.VesselID)
	ok := false
	for _, p := range allowed {
		if p == g.PortID {
			ok = true
			break
		}
	}
	if !ok {
		g.PortID = v.PortID
	}
	if g.BerthDay < v.ETADay {
		g.BerthDay = v.ETADay
	}
	return g
}

// toAssignments converts an individual into the shared assignment format,
// repairing malformed genes first.
func (r *Refiner) toAssignments(genes []Gene) []model.Assignment {
	out := make([]model.Assignment, 0, len(genes))
	rakeCap := r.costs.RakeCapacityMT()
	for _, g := range genes {
		g = r.repair(g)
		v, err := r.tables.Vessel(g.VesselID)
		if err != nil {
			continue
		}
		delay := r.delayFor(g.VesselID, g.PortID)
		out = append(out, model.Assignment{
			VesselID:      g.VesselID,
			PortID:        g.PortID,
			PlantID:       g.PlantID,
			CargoMT:       v.CargoMT,
			ScheduledDay:  g.BerthDay,
			BerthDay:      g.BerthDay + delay,
			PlannedDay:    v.ETADay,
			PredictedLag:  delay,
			RakesRequired: model.RakesFor(v.CargoMT, rakeCap),
		})
	}
	return out
}

// evaluate computes an individual's fitness: base plan cost (with the
// secondary-port penalty) plus capacity and rake penalties, so infeasible
// plans stay comparable but dominated.
func (r *Refiner) evaluate(assignments []model.Assignment) float64 {
	var total float64
	for _, a := range assignments {
		b, err := r.costs.AssignmentCost(a, true)
		if err != nil {
			// Unresolvable reference even after repair; price it out of
			// contention instead of failing the whole evaluation.
			total += math.Inf(1)
			continue
		}
		total += b.Total()
	}
	return total + r.constraintPenalties(assignments)
}

// constraintPenalties prices port-day capacity overruns and rake-day
// shortages.
func (r *Refiner) constraintPenalties(assignments []model.Assignment) float64 {
	type portDay struct {
		port string
		day  int
	}
	usage := make(map[portDay]float64)
	rakes := make(map[portDay]int)
	for _, a := range assignments {
		key := portDay{a.PortID, int(math.Ceil(a.ScheduledDay))}
		usage[key] += a.CargoMT
		rakes[key] += a.RakesRequired
	}

	var penalty float64
	for key, used := range usage {
		p, err := r.tables.Port(key.port)
		if err != nil {
			continue
		}
		if excess := used - p.DailyCapacityMT; excess > 0 {
			penalty += excess * r.cfg.CapacityPenaltyPerMT
		}
	}
	for key, used := range rakes {
		p, err := r.tables.Port(key.port)
		if err != nil {
			continue
		}
		if excess := used - p.RakesPerDay; excess > 0 {
			penalty += float64(excess) * r.cfg.RakePenaltyPerUnit
		}
	}
	return penalty
}

// evaluateAll computes fitness for every individual lacking one. Individuals
// are independent and the evaluation is RNG-free, so they are scored in
// parallel and joined before selection.
func (r *Refiner) evaluateAll(pop []individual) {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(pop) {
		workers = len(pop)
	}
	if workers <= 1 {
		for i := range pop {
			if !pop[i].valid {
				pop[i].fitness = r.evaluate(r.toAssignments(pop[i].genes))
				pop[i].valid = true
			}
		}
		return
	}

	var wg sync.WaitGroup
	idx := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				pop[i].fitness = r.evaluate(r.toAssignments(pop[i].genes))
				pop[i].valid = true
			}
		}()
	}
	for i := range pop {
		if !pop[i].valid {
			idx <- i
		}
	}
	close(idx)
	wg.Wait()
}
