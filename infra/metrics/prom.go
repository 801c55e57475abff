package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/meterplan/core/metrics"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	plans    *prometheus.CounterVec
	visits   *prometheus.CounterVec
	duration prometheus.Histogram
	stock    prometheus.Gauge
	backlog  prometheus.Gauge
}

// NewPromSink registers planning metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately via StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	plans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_runs_total",
		Help: "Total number of planning computations",
	}, []string{"committed"})
	visits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planning_visits_total",
		Help: "Total number of visits written by plan commits",
	}, []string{"technician_id"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planning_duration_seconds",
		Help:    "Time spent computing or committing a plan",
		Buckets: prometheus.DefBuckets,
	})
	stock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "meter_stock_level",
		Help: "Current meter inventory level",
	})
	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planning_unplanned_addresses",
		Help: "Addresses left unplanned by the latest computation",
	})

	collectors := []prometheus.Collector{plans, visits, duration, stock, backlog}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	plans = collectors[0].(*prometheus.CounterVec)
	visits = collectors[1].(*prometheus.CounterVec)
	duration = collectors[2].(prometheus.Histogram)
	stock = collectors[3].(prometheus.Gauge)
	backlog = collectors[4].(prometheus.Gauge)

	return &PromSink{plans: plans, visits: visits, duration: duration, stock: stock, backlog: backlog}, nil
}

// RecordPlan increments the run counter and updates the backlog gauge.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.WithLabelValues(strconv.FormatBool(ev.Committed)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.backlog.Set(float64(ev.Unplanned))
	s.stock.Set(float64(ev.Stock))
	return nil
}

// RecordVisit increments the per-technician visit counter.
func (s *PromSink) RecordVisit(ev coremetrics.VisitEvent) error {
	s.visits.WithLabelValues(strconv.FormatInt(ev.TechnicianID, 10)).Inc()
	return nil
}

// RecordStock sets the stock gauge.
func (s *PromSink) RecordStock(ev coremetrics.StockEvent) error {
	s.stock.Set(float64(ev.Level))
	return nil
}
