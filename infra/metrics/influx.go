package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/steelroute/rakeflow/core/metrics"
	"github.com/steelroute/rakeflow/infra/logger"
)

// InfluxSink writes stage outcomes to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordStageResult writes the stage outcome as a line protocol event.
func (s *InfluxSink) RecordStageResult(ev coremetrics.StageResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_stage_result").
		AddTag("run_id", ev.RunID).
		AddTag("stage", ev.Stage).
		AddTag("method", ev.Method).
		AddTag("status", ev.Status).
		AddTag("component", "pipeline").
		AddField("objective", round3(ev.Objective)).
		AddField("assignments", ev.Assignments).
		AddField("solve_seconds", round3(ev.SolveSeconds)).
		AddField("seed", strconv.FormatInt(ev.Seed, 10)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordKPIs writes the simulated KPI block.
func (s *InfluxSink) RecordKPIs(ev coremetrics.KPIReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_plan_kpis").
		AddTag("run_id", ev.RunID).
		AddTag("component", "simulator").
		AddField("total_cost", round3(ev.TotalCost)).
		AddField("demurrage_cost", round3(ev.DemurrageCost)).
		AddField("port_handling_cost", round3(ev.PortHandlingCost)).
		AddField("rail_transport_cost", round3(ev.RailTransportCost)).
		AddField("demand_fulfillment_pct", round3(ev.DemandFulfilledPct)).
		AddField("vessels_processed_pct", round3(ev.VesselsProcessedPct)).
		AddField("avg_vessel_wait_hours", round3(ev.AvgVesselWaitHours)).
		AddField("avg_rake_utilization", round3(ev.AvgRakeUtilization)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
