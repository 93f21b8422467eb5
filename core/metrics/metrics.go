package metrics

import "time"

// StageResult is the per-stage outcome emitted after each pipeline stage
// (exact, baseline, evolution, annealing, simulation).
type StageResult struct {
	RunID        string
	Stage        string
	Method       string
	Status       string
	Objective    float64
	Assignments  int
	SolveSeconds float64
	Seed         int64
	Time         time.Time
}

// MetricsSink records stage outcomes for observability purposes.
type MetricsSink interface {
	RecordStageResult(ev StageResult) error
}

// KPIReport carries the headline figures of a simulated plan.
type KPIReport struct {
	RunID               string
	TotalCost           float64
	DemurrageCost       float64
	PortHandlingCost    float64
	RailTransportCost   float64
	DemandFulfilledPct  float64
	VesselsProcessedPct float64
	AvgVesselWaitHours  float64
	AvgRakeUtilization  float64
	Time                time.Time
}

// KPIRecorder is implemented by sinks able to record simulated KPIs.
type KPIRecorder interface {
	RecordKPIs(ev KPIReport) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStageResult(StageResult) error { return nil }
func (NopSink) RecordKPIs(KPIReport) error          { return nil }
