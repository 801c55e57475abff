package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/meterplan/config"
	"github.com/kilianp07/meterplan/core/logger"
	coremetrics "github.com/kilianp07/meterplan/core/metrics"
	infralogger "github.com/kilianp07/meterplan/infra/logger"
	inframetrics "github.com/kilianp07/meterplan/infra/metrics"
	"github.com/kilianp07/meterplan/infra/mqtt"
	"github.com/kilianp07/meterplan/infra/store"
	"github.com/kilianp07/meterplan/internal/eventbus"
)

// Service owns the wired adapters: store, metrics sinks, notifier and the
// planner built on top of them.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	store   *store.Store
	planner *Planner
	bus     *eventbus.Bus[Event]
	closers []func()
}

// New opens the store and builds the planner with the sinks and notifier the
// configuration enables.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := infralogger.New("app")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	svc := &Service{cfg: cfg, log: logg, store: st, bus: eventbus.New[Event]()}
	svc.closers = append(svc.closers, func() {
		if err := st.Close(); err != nil {
			logg.Errorf("store close: %v", err)
		}
	})

	var sinks []coremetrics.PlanSink
	if cfg.Metrics.PrometheusEnabled {
		prom, err := inframetrics.NewPromSink()
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, prom)
	}
	if cfg.Metrics.InfluxEnabled {
		influx := inframetrics.NewInfluxSinkWithFallback(cfg.Metrics)
		if closer, ok := influx.(interface{ Close() }); ok {
			svc.closers = append(svc.closers, closer.Close)
		}
		sinks = append(sinks, influx)
	}
	var sink coremetrics.PlanSink = coremetrics.NopSink{}
	switch len(sinks) {
	case 0:
	case 1:
		sink = sinks[0]
	default:
		sink = inframetrics.NewMultiSink(sinks...)
	}

	opts := []Option{WithLogger(logg), WithSink(sink), WithBus(svc.bus)}
	if cfg.MQTT.Enabled {
		notifier, err := mqtt.NewPahoNotifier(cfg.MQTT)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		svc.closers = append(svc.closers, notifier.Close)
		opts = append(opts, WithNotifier(notifier))
	}

	svc.planner = NewPlanner(st, cfg.Planning, opts...)
	return svc, nil
}

// Planner returns the wired planner.
func (s *Service) Planner() *Planner { return s.planner }

// Bus returns the planning event bus.
func (s *Service) Bus() *eventbus.Bus[Event] { return s.bus }

// Run blocks until the context is cancelled, serving the Prometheus endpoint
// when enabled and logging planning events from the bus.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			s.log.Debugw("planning event", map[string]any{"event": fmt.Sprintf("%T", ev), "detail": ev})
		}
	}
}

// Close releases adapters in reverse wiring order.
func (s *Service) Close() error {
	s.bus.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	return nil
}
