package metrics

import (
	"errors"
	"testing"

	coremetrics "github.com/steelroute/rakeflow/core/metrics"
)

type recordingSink struct {
	stages []coremetrics.StageResult
	kpis   []coremetrics.KPIReport
	err    error
}

func (r *recordingSink) RecordStageResult(ev coremetrics.StageResult) error {
	if r.err != nil {
		return r.err
	}
	r.stages = append(r.stages, ev)
	return nil
}

func (r *recordingSink) RecordKPIs(ev coremetrics.KPIReport) error {
	if r.err != nil {
		return r.err
	}
	r.kpis = append(r.kpis, ev)
	return nil
}

// stageOnlySink does not implement KPIRecorder.
type stageOnlySink struct {
	stages int
}

func (s *stageOnlySink) RecordStageResult(coremetrics.StageResult) error {
	s.stages++
	return nil
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	multi := NewMultiSink(a, b)

	if err := multi.RecordStageResult(coremetrics.StageResult{Stage: "exact"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(a.stages) != 1 || len(b.stages) != 1 {
		t.Fatalf("fanout missed a sink: %d, %d", len(a.stages), len(b.stages))
	}

	if err := multi.RecordKPIs(coremetrics.KPIReport{TotalCost: 10}); err != nil {
		t.Fatalf("record kpis: %v", err)
	}
	if len(a.kpis) != 1 || len(b.kpis) != 1 {
		t.Fatalf("kpi fanout missed a sink: %d, %d", len(a.kpis), len(b.kpis))
	}
}

func TestMultiSinkReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingSink{err: boom}
	b := &recordingSink{}
	multi := NewMultiSink(a, b)

	if err := multi.RecordStageResult(coremetrics.StageResult{}); !errors.Is(err, boom) {
		t.Fatalf("expected first sink's error, got %v", err)
	}
	// The failing sink stops the fanout.
	if len(b.stages) != 0 {
		t.Fatalf("later sink received record after error")
	}
}

func TestMultiSinkSkipsSinksWithoutKPIs(t *testing.T) {
	plain := &stageOnlySink{}
	rec := &recordingSink{}
	multi := NewMultiSink(plain, rec)

	if err := multi.RecordKPIs(coremetrics.KPIReport{}); err != nil {
		t.Fatalf("record kpis: %v", err)
	}
	if len(rec.kpis) != 1 {
		t.Fatalf("recording sink missed the report")
	}
	if plain.stages != 0 {
		t.Fatalf("stage-only sink touched unexpectedly")
	}
}
