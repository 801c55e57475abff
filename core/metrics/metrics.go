// Package metrics defines the observability interfaces for planning
// operations. Sinks like the Prometheus and InfluxDB implementations in
// infra/metrics record previews, commits and stock levels and can be
// combined with a multi sink.
package metrics

import "time"

// PlanEvent summarizes one planning computation (preview or commit).
type PlanEvent struct {
	Date            time.Time
	CommitID        string
	Planned         int
	Unplanned       int
	SkippedBlocked  int
	SkippedBuffered int
	SlotCount       int
	Stock           int
	Committed       bool
	Duration        time.Duration
	Time            time.Time
}

// VisitEvent records one appointment created by a commit.
type VisitEvent struct {
	CommitID     string
	AddressID    int64
	TechnicianID int64
	StartsAt     time.Time
	Time         time.Time
}

// StockEvent records the stock level after a ledger change.
type StockEvent struct {
	Level int
	Time  time.Time
}

// PlanSink records planning events for observability purposes.
type PlanSink interface {
	RecordPlan(ev PlanEvent) error
}

// VisitRecorder is implemented by sinks able to record individual visits.
type VisitRecorder interface {
	RecordVisit(ev VisitEvent) error
}

// StockRecorder is implemented by sinks able to record stock levels.
type StockRecorder interface {
	RecordStock(ev StockEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error   { return nil }
func (NopSink) RecordVisit(VisitEvent) error { return nil }
func (NopSink) RecordStock(StockEvent) error { return nil }
