package metrics

import coremetrics "github.com/kilianp07/meterplan/core/metrics"

// MultiSink fans planning events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.PlanSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.PlanSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordPlan(ev coremetrics.PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordVisit forwards visit events to sinks that record them.
func (m *MultiSink) RecordVisit(ev coremetrics.VisitEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.VisitRecorder); ok {
			if err := rec.RecordVisit(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordStock forwards stock events to sinks that record them.
func (m *MultiSink) RecordStock(ev coremetrics.StockEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.StockRecorder); ok {
			if err := rec.RecordStock(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
