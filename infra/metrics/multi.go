package metrics

import coremetrics "github.com/steelroute/rakeflow/core/metrics"

// MultiSink fanouts stage outcomes to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStageResult forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordStageResult(ev coremetrics.StageResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordStageResult(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordKPIs forwards KPI reports to sinks that record them.
func (m *MultiSink) RecordKPIs(ev coremetrics.KPIReport) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.KPIRecorder); ok {
			if err := rec.RecordKPIs(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
