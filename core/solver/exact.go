// Package solver implements the exact optimization stage: a time-indexed
// assignment model minimizing port handling, rail transport and demurrage
// cost, plus the FCFS baseline generator used as a comparison benchmark.
package solver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/logger"
	"github.com/steelroute/rakeflow/core/model"
)

// Config holds the exact stage parameters.
type Config struct {
	TimeHorizonDays  int    `json:"time_horizon_days" yaml:"time_horizon_days"`
	TimeLimitSeconds int    `json:"time_limit_seconds" yaml:"time_limit_seconds"`
	SolverName       string `json:"solver_name" yaml:"solver_name"`
}

// SetDefaults applies the standard horizon and budget.
func (c *Config) SetDefaults() {
	if c.TimeHorizonDays == 0 {
		c.TimeHorizonDays = 30
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 300
	}
	if c.SolverName == "" {
		c.SolverName = "simplex"
	}
}

// Validate checks the stage parameters.
func (c Config) Validate() error {
	if c.TimeHorizonDays < 1 {
		return fmt.Errorf("time_horizon_days must be at least 1")
	}
	if c.TimeLimitSeconds < 1 {
		return fmt.Errorf("time_limit_seconds must be at least 1")
	}
	return nil
}

// ExactSolver builds and solves the dispatch model over a discretized day
// horizon. The model's integer structure (a vessel berths at most once, only
// at its designated port, and discharges within its berth period) lets it
// decompose into an earliest-feasible-period schedule per vessel plus a
// plant-split LP solved with gonum's simplex.
type ExactSolver struct {
	tables *model.Tables
	costs  *cost.Model
	est    *cost.DelayEstimator
	cfg    Config
	log    logger.Logger
}

// New creates an exact solver over the given tables.
func New(tables *model.Tables, costs *cost.Model, est *cost.DelayEstimator, cfg Config, log logger.Logger) *ExactSolver {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	return &ExactSolver{tables: tables, costs: costs, est: est, cfg: cfg, log: log}
}

// dayBudget tracks the remaining throughput and rake budget of one port-day.
type dayBudget struct {
	capacityMT float64
	rakes      int
}

// Solve runs the exact stage. The wall-clock budget is the earlier of the
// context deadline and the configured time limit; when it expires the best
// feasible partial plan found so far is returned with StatusTimeLimited.
// Solver faults are mapped to StatusError, never propagated as panics.
func (s *ExactSolver) Solve(ctx context.Context) (sol model.Solution) {
	start := time.Now()
	sol = model.NewSolution(model.StatusOptimal, "exact/"+s.solverName())
	defer func() {
		if r := recover(); r != nil {
			sol.Status = model.StatusError
			sol.Message = fmt.Sprintf("solver fault: %v", r)
			sol.Assignments = nil
			sol.Objective = 0
		}
		sol.SolveTime = time.Since(start)
	}()

	deadline := start.Add(time.Duration(s.cfg.TimeLimitSeconds) * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	horizon := s.cfg.TimeHorizonDays
	budgets := make(map[string][]dayBudget, len(s.tables.Ports()))
	for _, p := range s.tables.Ports() {
		days := make([]dayBudget, horizon+1)
		for t := 1; t <= horizon; t++ {
			days[t] = dayBudget{capacityMT: p.DailyCapacityMT, rakes: p.RakesPerDay}
		}
		budgets[p.ID] = days
	}

	// Remaining horizon demand per plant, the split LP's upper bounds. Plant
	// demand is a soft constraint: when the bounded LP cannot place the full
	// cargo the bounds are dropped and the overflow is noted.
	demandLeft := make(map[string]float64, len(s.tables.Plants()))
	for _, pl := range s.tables.Plants() {
		demandLeft[pl.ID] = pl.DailyDemandMT * float64(horizon)
	}

	vessels := s.tables.Vessels()
	sort.SliceStable(vessels, func(i, j int) bool {
		if vessels[i].ETADay != vessels[j].ETADay {
			return vessels[i].ETADay < vessels[j].ETADay
		}
		return vessels[i].ID < vessels[j].ID
	})

	rakeCap := s.costs.RakeCapacityMT()
	var objective float64

	for i, v := range vessels {
		if time.Now().After(deadline) || ctx.Err() != nil {
			sol.Status = model.StatusTimeLimited
			sol.Message = fmt.Sprintf("time limit reached after %d of %d vessels", i, len(vessels))
			break
		}

		plants := s.tables.CompatiblePlants(v.CargoGrade)
		if len(plants) == 0 {
			sol.Status = model.StatusInfeasible
			sol.Message = fmt.Sprintf("no plant accepts grade %s (vessel %s)", v.CargoGrade, v.ID)
			return sol
		}

		rakesNeeded := model.RakesFor(v.CargoMT, rakeCap)
		berthDay := s.earliestFeasibleDay(v, rakesNeeded, budgets[v.PortID])
		if berthDay == 0 {
			sol.Status = model.StatusInfeasible
			sol.Message = fmt.Sprintf("vessel %s cannot berth within the %d-day horizon", v.ID, horizon)
			return sol
		}

		split, relaxed, err := s.splitCargo(v, plants, demandLeft)
		if err != nil {
			sol.Status = model.StatusError
			sol.Message = fmt.Sprintf("plant split for vessel %s: %v", v.ID, err)
			return sol
		}
		// A relaxed split broke the per-plant demand bounds, so the plan is
		// feasible but no longer provably optimal.
		if relaxed && sol.Status == model.StatusOptimal {
			sol.Status = model.StatusHeuristic
			sol.Message = fmt.Sprintf("plant split relaxed for vessel %s", v.ID)
		}

		delay := s.est.PredictDelayDays(v.ID, v.PortID)
		demurrage := s.costs.Demurrage(v, float64(berthDay)+delay, v.ETADay)
		objective += demurrage

		day := budgets[v.PortID][berthDay]
		for plantID, cargo := range split {
			if cargo <= 1e-6 {
				continue
			}
			a := model.Assignment{
				VesselID:      v.ID,
				PortID:        v.PortID,
				PlantID:       plantID,
				CargoMT:       cargo,
				ScheduledDay:  float64(berthDay),
				BerthDay:      float64(berthDay) + delay,
				PlannedDay:    v.ETADay,
				PredictedLag:  delay,
				RakesRequired: model.RakesFor(cargo, rakeCap),
			}
			handling, err := s.costs.PortHandling(cargo, v.PortID)
			if err != nil {
				sol.Status = model.StatusError
				sol.Message = err.Error()
				return sol
			}
			rail, err := s.costs.Rail(cargo, v.PortID, plantID)
			if err != nil {
				sol.Status = model.StatusError
				sol.Message = err.Error()
				return sol
			}
			objective += handling + rail
			day.capacityMT -= cargo
			day.rakes -= a.RakesRequired
			demandLeft[plantID] -= cargo
			if demandLeft[plantID] < 0 {
				demandLeft[plantID] = 0
			}
			sol.Assignments = append(sol.Assignments, a)
		}
		budgets[v.PortID][berthDay] = day
	}

	sol.Objective = objective
	return sol
}

// earliestFeasibleDay scans the horizon for the first period with enough
// remaining throughput and rake budget. Demurrage is nondecreasing in the
// berth day, so the earliest feasible period is optimal for the vessel given
// prior bookings. Returns 0 when no period fits.
func (s *ExactSolver) earliestFeasibleDay(v model.Vessel, rakesNeeded int, days []dayBudget) int {
	first := int(math.Ceil(v.ETADay))
	if first < 1 {
		first = 1
	}
	for t := first; t < len(days); t++ {
		if days[t].capacityMT >= v.CargoMT && days[t].rakes >= rakesNeeded {
			return t
		}
	}
	return 0
}

// splitCargo distributes the vessel's cargo across compatible plants at
// minimum rail cost, bounded by each plant's remaining horizon demand. When
// the bounded LP is infeasible the demand caps are lifted and everything
// goes to the cheapest plant; the relaxed flag reports that fallback so the
// caller can downgrade the solution status.
func (s *ExactSolver) splitCargo(v model.Vessel, plants []model.Plant, demandLeft map[string]float64) (split map[string]float64, relaxed bool, err error) {
	rates := make([]float64, len(plants))
	caps := make([]float64, len(plants))
	for i, pl := range plants {
		rate, err := s.costs.RailRate(v.PortID, pl.ID)
		if err != nil {
			return nil, false, err
		}
		rates[i] = rate
		caps[i] = demandLeft[pl.ID]
	}

	xs, err := lpSolve(rates, caps, v.CargoMT)
	if err != nil || !conserves(xs, caps, v.CargoMT) {
		// Demand bounds made the split infeasible; fall back to the
		// cheapest plant, demand overrun handled downstream.
		cheapest := 0
		for i := 1; i < len(rates); i++ {
			if rates[i] < rates[cheapest] {
				cheapest = i
			}
		}
		s.log.Debugw("plant split relaxed to cheapest plant", map[string]any{
			"vessel": v.ID,
			"plant":  plants[cheapest].ID,
		})
		return map[string]float64{plants[cheapest].ID: v.CargoMT}, true, nil
	}

	split = make(map[string]float64, len(plants))
	for i, pl := range plants {
		x := xs[i]
		if x < 0 {
			x = 0
		}
		if x > caps[i] {
			x = caps[i]
		}
		split[pl.ID] += x
	}
	// Distribute rounding residue onto the cheapest plant so conservation
	// holds exactly.
	var sum float64
	for _, x := range split {
		sum += x
	}
	if residue := v.CargoMT - sum; math.Abs(residue) > 1e-9 {
		cheapest := plants[0].ID
		best := rates[0]
		for i, pl := range plants {
			if rates[i] < best {
				best = rates[i]
				cheapest = pl.ID
			}
		}
		split[cheapest] += residue
	}
	return split, false, nil
}

// conserves checks the LP solution sums to the target within tolerance.
func conserves(xs, caps []float64, target float64) bool {
	if len(xs) < len(caps) {
		return false
	}
	var sum float64
	for i := range caps {
		x := xs[i]
		if x < 0 {
			x = 0
		}
		if x > caps[i] {
			x = caps[i]
		}
		sum += x
	}
	return math.Abs(sum-target) <= 1e-3
}

// solverName reports the effective backend. Unknown names fall back to the
// built-in simplex, mirroring the optional-commercial-solver pattern.
func (s *ExactSolver) solverName() string {
	switch s.cfg.SolverName {
	case "", "simplex":
		return "simplex"
	default:
		s.log.Warnf("solver %q not available, falling back to simplex", s.cfg.SolverName)
		return "simplex"
	}
}
