// Package pipeline chains the optimization stages end to end: exact solve,
// FCFS baseline, evolutionary refinement, simulated annealing, then a
// discrete-event simulation of the final plan. All stages share one cost
// model and one seeded RNG source, so a pipeline run is reproducible from its
// root seed.
package pipeline

import (
	"context"
	"time"

	"github.com/steelroute/rakeflow/core/cost"
	"github.com/steelroute/rakeflow/core/heuristic"
	"github.com/steelroute/rakeflow/core/logger"
	"github.com/steelroute/rakeflow/core/metrics"
	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/rng"
	"github.com/steelroute/rakeflow/core/sim"
	"github.com/steelroute/rakeflow/core/solver"
)

// Config aggregates the per-stage parameters.
type Config struct {
	Seed      int64            `json:"seed" yaml:"seed"`
	Cost      cost.Config      `json:"costing" yaml:"costing"`
	Solver    solver.Config    `json:"solver" yaml:"solver"`
	Heuristic heuristic.Config `json:"heuristic" yaml:"heuristic"`
	Sim       sim.Config       `json:"sim" yaml:"sim"`
}

// SetDefaults applies stage defaults.
func (c *Config) SetDefaults() {
	c.Cost.SetDefaults()
	c.Solver.SetDefaults()
	c.Heuristic.SetDefaults()
	c.Sim.SetDefaults()
}

// Validate checks every stage section.
func (c Config) Validate() error {
	if err := c.Cost.Validate(); err != nil {
		return err
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	if err := c.Heuristic.Validate(); err != nil {
		return err
	}
	return c.Sim.Validate()
}

// Outcome collects every intermediate stage result of one pipeline run.
type Outcome struct {
	Baseline model.Solution
	Exact    model.Solution
	Evolved  model.Solution
	Annealed model.Solution

	// Final is the plan handed to the simulator, normally Annealed.
	Final model.Solution

	Sim  *sim.Result
	KPIs sim.KPISet

	// Improvement of the final plan objective over the baseline, percent.
	ImprovementPct float64
}

// Runner executes the staged pipeline over one table set.
type Runner struct {
	tables *model.Tables
	cfg    Config
	log    logger.Logger
	sink   metrics.MetricsSink
}

// New builds a pipeline runner. A nil sink disables metrics.
func New(tables *model.Tables, cfg Config, log logger.Logger, sink metrics.MetricsSink) *Runner {
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Runner{tables: tables, cfg: cfg, log: log, sink: sink}
}

// Run executes all stages. The exact result seeds the evolutionary stage when
// usable; otherwise the FCFS baseline seeds it, so the refinement stages
// always start from a complete plan. Returns an error only when the final
// plan cannot be simulated.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	src := rng.New(rng.Resolve(r.cfg.Seed))
	costs := cost.NewModel(r.tables, r.cfg.Cost)
	est := cost.NewDelayEstimator(src)

	out := &Outcome{}

	exact := solver.New(r.tables, costs, est, r.cfg.Solver, r.log)

	out.Baseline = exact.Baseline()
	r.recordStage("baseline", out.Baseline)

	out.Exact = exact.Solve(ctx)
	r.recordStage("exact", out.Exact)

	seed := &out.Exact
	if !out.Exact.Status.Usable() {
		r.log.Warnf("exact stage unusable (%s), seeding refinement from baseline", out.Exact.Status)
		seed = &out.Baseline
	}

	refiner := heuristic.New(r.tables, costs, est, r.cfg.Heuristic, r.log, src)

	out.Evolved = refiner.RunEvolution(seed)
	r.recordStage("evolution", out.Evolved)

	out.Annealed = refiner.RunAnnealing(out.Evolved)
	r.recordStage("annealing", out.Annealed)

	out.Final = out.Annealed
	if base := out.Baseline.Objective; base > 0 {
		out.ImprovementPct = (base - out.Final.Objective) / base * 100
	}

	simulator := sim.New(r.tables, costs, r.cfg.Sim, r.log)
	start := time.Now()
	res, err := simulator.Run(out.Final.Assignments)
	if err != nil {
		r.log.Errorf("simulation failed: %v", err)
		return out, err
	}
	out.Sim = &res
	out.KPIs = res.KPIs
	if err := r.sink.RecordStageResult(metrics.StageResult{
		RunID:        out.Final.RunID,
		Stage:        "simulation",
		Method:       "discrete-event",
		Status:       string(out.Final.Status),
		Objective:    res.Costs.Total(),
		Assignments:  len(out.Final.Assignments),
		SolveSeconds: time.Since(start).Seconds(),
		Seed:         src.Root(),
		Time:         time.Now(),
	}); err != nil {
		r.log.Warnf("record simulation stage: %v", err)
	}
	r.recordKPIs(out.Final.RunID, res.KPIs)

	r.log.Infof("pipeline complete: baseline=%.0f final=%.0f improvement=%.1f%%",
		out.Baseline.Objective, out.Final.Objective, out.ImprovementPct)
	return out, nil
}

func (r *Runner) recordStage(stage string, sol model.Solution) {
	if err := r.sink.RecordStageResult(metrics.StageResult{
		RunID:        sol.RunID,
		Stage:        stage,
		Method:       sol.Method,
		Status:       string(sol.Status),
		Objective:    sol.Objective,
		Assignments:  len(sol.Assignments),
		SolveSeconds: sol.SolveTime.Seconds(),
		Seed:         sol.Seed,
		Time:         time.Now(),
	}); err != nil {
		r.log.Warnf("record %s stage: %v", stage, err)
	}
}

func (r *Runner) recordKPIs(runID string, k sim.KPISet) {
	rec, ok := r.sink.(metrics.KPIRecorder)
	if !ok {
		return
	}
	if err := rec.RecordKPIs(metrics.KPIReport{
		RunID:               runID,
		TotalCost:           k.TotalCost,
		DemurrageCost:       k.DemurrageCost,
		PortHandlingCost:    k.PortHandlingCost,
		RailTransportCost:   k.RailTransportCost,
		DemandFulfilledPct:  k.DemandFulfilledPct,
		VesselsProcessedPct: k.VesselsProcessed,
		AvgVesselWaitHours:  k.AvgVesselWaitHours,
		AvgRakeUtilization:  k.AvgRakeUtilization,
		Time:                time.Now(),
	}); err != nil {
		r.log.Warnf("record kpis: %v", err)
	}
}
