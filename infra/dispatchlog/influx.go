// Package dispatchlog provides an InfluxDB-backed store for dispatch
// decision records.
package dispatchlog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/openagv/fleetkernel/core/dispatch/logging"
	"github.com/openagv/fleetkernel/infra/logger"
)

// Config holds the InfluxDB connection settings.
type Config struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxStore writes dispatch decisions to an InfluxDB instance using the
// official client. Query is not supported; records are meant to be read
// through dashboards.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxStore creates a store for the given InfluxDB endpoint.
func NewInfluxStore(cfg Config) *InfluxStore {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("dispatch-log"),
	}
}

// NewInfluxStoreWithFallback tries to ping the InfluxDB instance and
// falls back to a JSONL file store when the health check fails.
func NewInfluxStoreWithFallback(cfg Config, fallbackPath string) (logging.LogStore, error) {
	store := NewInfluxStore(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := store.client.Health(ctx)
	if err == nil && health.Status == "pass" {
		return store, nil
	}
	if err != nil {
		store.log.Errorf("influx health check error: %v", err)
	} else {
		store.log.Errorf("influx health status: %s", health.Status)
	}
	store.client.Close()
	return logging.NewJSONLStore(fallbackPath)
}

// Append writes the record as a dispatch_decision point.
func (s *InfluxStore) Append(ctx context.Context, rec logging.Record) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_decision").
		AddTag("outcome", rec.Outcome).
		AddTag("component", "dispatch_engine")
	if rec.Vehicle != "" {
		p.AddTag("vehicle", rec.Vehicle)
	}
	if rec.Order != "" {
		p.AddTag("order", rec.Order)
	}
	p = p.AddField("cost", rec.Cost).
		AddField("detail", rec.Detail).
		SetTime(rec.Timestamp)
	return s.writeAPI.WritePoint(ctx, p)
}

// Query is not supported by the InfluxDB store.
func (s *InfluxStore) Query(context.Context, logging.Query) ([]logging.Record, error) {
	return nil, fmt.Errorf("influx store does not support queries")
}

// Close shuts the underlying client down.
func (s *InfluxStore) Close() error {
	s.client.Close()
	return nil
}
