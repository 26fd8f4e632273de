package googlemonitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/api/option"
	metricpb "google.golang.org/genproto/googleapis/api/metric"
	"google.golang.org/genproto/googleapis/api/monitoredres"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const customMetricPrefix = "custom.googleapis.com/"

var ErrNoMetricClient = errors.New("cloud monitoring is not configured")

// MonitoringClient records counters, timers and gauges in a prometheus
// registry and, when a Cloud Monitoring client is attached, pushes them as
// custom time series.
type MonitoringClient struct {
	projectId  string
	client     *monitoring.MetricClient
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	mu         sync.RWMutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewRecorder returns a client that only records locally. A nil registry
// means the prometheus default registry.
func NewRecorder(registry *prometheus.Registry) *MonitoringClient {
	c := &MonitoringClient{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
	if registry != nil {
		c.registerer = registry
		c.gatherer = registry
	}
	return c
}

func NewMonitoringClient(ctx context.Context, projectId, jsonCredentialsStr string, registry *prometheus.Registry) (*MonitoringClient, error) {
	var client *monitoring.MetricClient
	var err error
	if jsonCredentialsStr == "" {
		// for prod where you can fetch it from gcp service account
		client, err = monitoring.NewMetricClient(ctx)
	} else {
		client, err = monitoring.NewMetricClient(ctx, option.WithCredentialsJSON([]byte(jsonCredentialsStr)))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Monitoring client: %w", err)
	}

	c := NewRecorder(registry)
	c.projectId = projectId
	c.client = client
	return c, nil
}

func (c *MonitoringClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// register adds collector to the registry, reusing an equivalent collector
// that is already there.
func (c *MonitoringClient) register(collector prometheus.Collector) prometheus.Collector {
	if err := c.registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		panic(err)
	}
	return collector
}

func (c *MonitoringClient) getOrCreateCounterVec(metricName string, labels []string) *prometheus.CounterVec {
	c.mu.RLock()
	counter, exists := c.counters[metricName]
	c.mu.RUnlock()
	if exists {
		return counter
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if counter, exists = c.counters[metricName]; exists {
		return counter
	}
	counter = c.register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricName,
		Help: "Dynamically created counter",
	}, labels)).(*prometheus.CounterVec)
	c.counters[metricName] = counter
	return counter
}

func (c *MonitoringClient) getOrCreateHistogramVec(metricName string, labels []string) *prometheus.HistogramVec {
	c.mu.RLock()
	histogram, exists := c.histograms[metricName]
	c.mu.RUnlock()
	if exists {
		return histogram
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if histogram, exists = c.histograms[metricName]; exists {
		return histogram
	}
	histogram = c.register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metricName,
		Help:    "Dynamically created histogram",
		Buckets: prometheus.DefBuckets,
	}, labels)).(*prometheus.HistogramVec)
	c.histograms[metricName] = histogram
	return histogram
}

func (c *MonitoringClient) getOrCreateGaugeVec(metricName string, labels []string) *prometheus.GaugeVec {
	c.mu.RLock()
	gauge, exists := c.gauges[metricName]
	c.mu.RUnlock()
	if exists {
		return gauge
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gauge, exists = c.gauges[metricName]; exists {
		return gauge
	}
	gauge = c.register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metricName,
		Help: "Dynamically created gauge",
	}, labels)).(*prometheus.GaugeVec)
	c.gauges[metricName] = gauge
	return gauge
}

func (c *MonitoringClient) RecordCounter(metricName string, labels map[string]string, value float64) {
	labelNames, labelValues := splitLabels(labels)
	counter := c.getOrCreateCounterVec(metricName, labelNames)
	counter.WithLabelValues(labelValues...).Add(value)
}

func (c *MonitoringClient) RecordTimer(metricName string, labels map[string]string, duration time.Duration) {
	labelNames, labelValues := splitLabels(labels)
	histogram := c.getOrCreateHistogramVec(metricName, labelNames)
	histogram.WithLabelValues(labelValues...).Observe(duration.Seconds())
}

func (c *MonitoringClient) RecordGauge(metricName string, labels map[string]string, value float64) {
	labelNames, labelValues := splitLabels(labels)
	gauge := c.getOrCreateGaugeVec(metricName, labelNames)
	gauge.WithLabelValues(labelValues...).Set(value)
}

// splitLabels returns label names in sorted order so that every call for a
// metric produces the same label schema.
func splitLabels(labels map[string]string) ([]string, []string) {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, labels[name])
	}
	return names, values
}

func (c *MonitoringClient) PushMetrics(ctx context.Context) error {
	if c.client == nil {
		return ErrNoMetricClient
	}

	mfs, err := c.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	timeSeries := c.buildTimeSeries(mfs, time.Now())
	if len(timeSeries) == 0 {
		return fmt.Errorf("no time series created")
	}

	if err := c.client.CreateTimeSeries(ctx, &monitoringpb.CreateTimeSeriesRequest{
		Name:       fmt.Sprintf("projects/%s", c.projectId),
		TimeSeries: timeSeries,
	}); err != nil {
		return fmt.Errorf("failed to write time series data: %w", err)
	}

	return nil
}

// PushLoop pushes metrics every interval until ctx is done.
func (c *MonitoringClient) PushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.PushMetrics(ctx); err != nil {
				slog.Warn("failed to push metrics", "error", err)
			}
		}
	}
}

func (c *MonitoringClient) buildTimeSeries(mfs []*dto.MetricFamily, now time.Time) []*monitoringpb.TimeSeries {
	var timeSeries []*monitoringpb.TimeSeries

	for _, mf := range mfs {
		name := mf.GetName()
		if strings.HasPrefix(name, "go_") || strings.HasPrefix(name, "promhttp_") || strings.HasPrefix(name, "process_") {
			continue
		}

		for _, m := range mf.Metric {
			labels := make(map[string]string)
			for _, l := range m.Label {
				labels[l.GetName()] = l.GetValue()
			}

			var value float64
			switch {
			case m.Gauge != nil:
				value = m.Gauge.GetValue()
			case m.Counter != nil:
				value = m.Counter.GetValue()
			case m.Summary != nil:
				value = m.Summary.GetSampleSum()
			case m.Histogram != nil:
				value = m.Histogram.GetSampleSum()
			default:
				slog.Debug("unhandled metric type", "metric", name)
				continue
			}

			timeSeries = append(timeSeries, &monitoringpb.TimeSeries{
				Metric: &metricpb.Metric{
					Type:   customMetricPrefix + name,
					Labels: labels,
				},
				Resource: &monitoredres.MonitoredResource{
					Type: "global",
					Labels: map[string]string{
						"project_id": c.projectId,
					},
				},
				Points: []*monitoringpb.Point{
					{
						Interval: &monitoringpb.TimeInterval{
							EndTime: timestamppb.New(now),
						},
						Value: &monitoringpb.TypedValue{
							Value: &monitoringpb.TypedValue_DoubleValue{
								DoubleValue: value,
							},
						},
					},
				},
			})
		}
	}

	return timeSeries
}
