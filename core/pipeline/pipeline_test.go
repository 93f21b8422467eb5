package pipeline

import (
	"context"
	"testing"

	"github.com/steelroute/rakeflow/core/heuristic"
	"github.com/steelroute/rakeflow/core/metrics"
	"github.com/steelroute/rakeflow/core/model"
)

// captureSink records every stage result and KPI report it receives.
type captureSink struct {
	stages []metrics.StageResult
	kpis   []metrics.KPIReport
}

func (c *captureSink) RecordStageResult(r metrics.StageResult) error {
	c.stages = append(c.stages, r)
	return nil
}

func (c *captureSink) RecordKPIs(r metrics.KPIReport) error {
	c.kpis = append(c.kpis, r)
	return nil
}

func fastPipelineConfig(seed int64) Config {
	return Config{
		Seed: seed,
		Heuristic: heuristic.Config{
			PopulationSize: 12,
			Generations:    8,
			MaxIterations:  60,
			Workers:        1,
		},
	}
}

func TestRunProducesUsableFinalPlan(t *testing.T) {
	tables, err := model.SampleTables()
	if err != nil {
		t.Fatalf("sample tables: %v", err)
	}

	sink := &captureSink{}
	out, err := New(tables, fastPipelineConfig(7), nil, sink).Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}

	if !out.Final.Status.Usable() {
		t.Fatalf("final plan status %s is not usable", out.Final.Status)
	}
	if len(out.Final.Assignments) == 0 {
		t.Fatalf("final plan has no assignments")
	}
	if out.Sim == nil {
		t.Fatalf("simulation result missing")
	}
	if out.KPIs.TotalDelivered <= 0 {
		t.Fatalf("no cargo delivered: %+v", out.KPIs)
	}

	// Annealing starts from the evolved plan and never regresses, so the
	// final objective must not exceed the evolved one.
	if out.Annealed.Objective > out.Evolved.Objective+1e-6 {
		t.Fatalf("annealed objective %f worse than evolved %f", out.Annealed.Objective, out.Evolved.Objective)
	}
	if out.Final.Objective != out.Annealed.Objective {
		t.Fatalf("final plan is not the annealed one")
	}
}

func TestRunRecordsEveryStage(t *testing.T) {
	tables, err := model.SampleTables()
	if err != nil {
		t.Fatalf("sample tables: %v", err)
	}

	sink := &captureSink{}
	if _, err := New(tables, fastPipelineConfig(7), nil, sink).Run(context.Background()); err != nil {
		t.Fatalf("pipeline run: %v", err)
	}

	want := []string{"baseline", "exact", "evolution", "annealing", "simulation"}
	if len(sink.stages) != len(want) {
		t.Fatalf("recorded %d stages, want %d: %+v", len(sink.stages), len(want), sink.stages)
	}
	for i, stage := range want {
		if sink.stages[i].Stage != stage {
			t.Fatalf("stage[%d] = %q, want %q", i, sink.stages[i].Stage, stage)
		}
	}
	for _, s := range sink.stages {
		if s.RunID == "" {
			t.Fatalf("stage %s missing run id", s.Stage)
		}
	}
	if len(sink.kpis) != 1 {
		t.Fatalf("recorded %d KPI reports, want 1", len(sink.kpis))
	}
	if sink.kpis[0].RunID != sink.stages[len(sink.stages)-1].RunID {
		t.Fatalf("KPI run id does not match the simulated plan")
	}
}

func TestRunIsReproducibleFromSeed(t *testing.T) {
	tables, err := model.SampleTables()
	if err != nil {
		t.Fatalf("sample tables: %v", err)
	}

	a, err := New(tables, fastPipelineConfig(7), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := New(tables, fastPipelineConfig(7), nil, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if a.Final.Objective != b.Final.Objective {
		t.Fatalf("objectives differ: %f vs %f", a.Final.Objective, b.Final.Objective)
	}
	if len(a.Final.Assignments) != len(b.Final.Assignments) {
		t.Fatalf("assignment counts differ")
	}
	for i := range a.Final.Assignments {
		x, y := a.Final.Assignments[i], b.Final.Assignments[i]
		if x.VesselID != y.VesselID || x.PortID != y.PortID || x.PlantID != y.PlantID || x.CargoMT != y.CargoMT {
			t.Fatalf("assignment %d differs: %+v vs %+v", i, x, y)
		}
	}
	if a.KPIs != b.KPIs {
		t.Fatalf("KPIs differ: %+v vs %+v", a.KPIs, b.KPIs)
	}
}

func TestConfigSetDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.Heuristic.PopulationSize != 50 || c.Sim.HorizonDays != 30 {
		t.Fatalf("stage defaults not applied: %+v", c)
	}

	c.Heuristic.CoolingRate = 1.5
	if err := c.Validate(); err == nil {
		t.Fatalf("expected stage validation error to surface")
	}
}
