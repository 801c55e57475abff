package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/meterplan/core/metrics"
	"github.com/kilianp07/meterplan/infra/logger"
)

// InfluxSink writes planning events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a down metrics backend never
// blocks planning.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.PlanSink {
	sink := NewInfluxSink(cfg)
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

// RecordPlan writes the planning summary as one point.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("planning_run").
		AddTag("committed", strconv.FormatBool(ev.Committed)).
		AddTag("commit_id", ev.CommitID).
		AddTag("plan_date", ev.Date.Format("2006-01-02")).
		AddField("planned", ev.Planned).
		AddField("unplanned", ev.Unplanned).
		AddField("skipped_blocked", ev.SkippedBlocked).
		AddField("skipped_buffered", ev.SkippedBuffered).
		AddField("slot_count", ev.SlotCount).
		AddField("stock", ev.Stock).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordVisit writes one point per committed visit.
func (s *InfluxSink) RecordVisit(ev coremetrics.VisitEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("planned_visit").
		AddTag("commit_id", ev.CommitID).
		AddTag("technician_id", strconv.FormatInt(ev.TechnicianID, 10)).
		AddField("address_id", ev.AddressID).
		AddField("starts_at", ev.StartsAt.Unix()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStock writes the ledger level.
func (s *InfluxSink) RecordStock(ev coremetrics.StockEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("meter_stock").
		AddField("level", ev.Level).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
