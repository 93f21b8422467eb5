package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/steelroute/rakeflow/core/metrics"
)

func TestInfluxSinkRecordStageResult(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.StageResult{
		RunID:        "run-1",
		Stage:        "exact",
		Method:       "simplex",
		Status:       "optimal",
		Objective:    12345.6789,
		Assignments:  10,
		SolveSeconds: 0.1234,
		Seed:         2025,
		Time:         now,
	}
	if err := sink.RecordStageResult(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("dispatch_stage_result").
		AddTag("run_id", "run-1").
		AddTag("stage", "exact").
		AddTag("method", "simplex").
		AddTag("status", "optimal").
		AddTag("component", "pipeline").
		AddField("objective", 12345.679).
		AddField("assignments", 10).
		AddField("solve_seconds", 0.123).
		AddField("seed", strconv.FormatInt(2025, 10)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSinkRecordKPIs(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	if err := sink.RecordKPIs(coremetrics.KPIReport{
		RunID:     "run-1",
		TotalCost: 1000.5,
		Time:      time.Now(),
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(body, "dispatch_plan_kpis") {
		t.Errorf("measurement missing from body: %s", body)
	}
	if !strings.Contains(body, "total_cost=1000.5") {
		t.Errorf("rounded total_cost missing from body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
