package metrics

import (
	coremetrics "github.com/steelroute/rakeflow/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records stage outcomes in Prometheus metrics.
type PromSink struct {
	runs      *prometheus.CounterVec
	objective *prometheus.GaugeVec
	solveTime *prometheus.HistogramVec
	kpis      *prometheus.GaugeVec
}

// NewPromSink registers stage metrics on the default Prometheus registerer.
// The Prometheus server should be started separately via StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_stage_runs_total",
		Help: "Total number of pipeline stage runs",
	}, []string{"stage", "status"})
	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_stage_objective",
		Help: "Objective value of the latest plan per stage",
	}, []string{"stage"})
	solveTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_stage_solve_seconds",
		Help:    "Wall-clock time spent in each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	kpis := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispatch_plan_kpi",
		Help: "Headline KPI values of the latest simulated plan",
	}, []string{"kpi"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(solveTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solveTime = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(kpis); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			kpis = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{runs: runs, objective: objective, solveTime: solveTime, kpis: kpis}, nil
}

// RecordStageResult increments the stage counter and updates the gauges.
func (s *PromSink) RecordStageResult(ev coremetrics.StageResult) error {
	s.runs.WithLabelValues(ev.Stage, ev.Status).Inc()
	s.objective.WithLabelValues(ev.Stage).Set(ev.Objective)
	s.solveTime.WithLabelValues(ev.Stage).Observe(ev.SolveSeconds)
	return nil
}

// RecordKPIs publishes the simulated KPI block as labelled gauges.
func (s *PromSink) RecordKPIs(ev coremetrics.KPIReport) error {
	s.kpis.WithLabelValues("total_cost").Set(ev.TotalCost)
	s.kpis.WithLabelValues("demurrage_cost").Set(ev.DemurrageCost)
	s.kpis.WithLabelValues("port_handling_cost").Set(ev.PortHandlingCost)
	s.kpis.WithLabelValues("rail_transport_cost").Set(ev.RailTransportCost)
	s.kpis.WithLabelValues("demand_fulfillment_pct").Set(ev.DemandFulfilledPct)
	s.kpis.WithLabelValues("vessels_processed_pct").Set(ev.VesselsProcessedPct)
	s.kpis.WithLabelValues("avg_vessel_wait_hours").Set(ev.AvgVesselWaitHours)
	s.kpis.WithLabelValues("avg_rake_utilization").Set(ev.AvgRakeUtilization)
	return nil
}
