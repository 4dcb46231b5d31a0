package helper

import (
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

// MetricKind tells which MetricsCollector method produced a SpyMetricRecord.
type MetricKind int

const (
	MetricDuration MetricKind = iota
	MetricCounter
	MetricValue
)

// SpyMetricRecord is one captured MetricsCollector call.
type SpyMetricRecord struct {
	Kind     MetricKind
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy captures the plain persistence.MetricsCollector calls of an engine.
// It deliberately does not implement the contextual variant, so engines fall back to these methods.
type MetricsCollectorSpy struct {
	mu          sync.Mutex
	records     []SpyMetricRecord
	recordCalls bool
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy that captures calls only if recordCalls is true.
func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

// RecordDuration implements persistence.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.capture(SpyMetricRecord{Kind: MetricDuration, Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter implements persistence.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.capture(SpyMetricRecord{Kind: MetricCounter, Metric: metric, Labels: labels})
}

// RecordValue implements persistence.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.capture(SpyMetricRecord{Kind: MetricValue, Metric: metric, Value: value, Labels: labels})
}

func (s *MetricsCollectorSpy) capture(record SpyMetricRecord) {
	if !s.recordCalls {
		return
	}

	record.Labels = maps.Clone(record.Labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
}

// Reset drops every captured record.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// GetCounterRecordCount returns how many counter increments were captured.
func (s *MetricsCollectorSpy) GetCounterRecordCount() int {
	return len(s.recordsOf(MetricCounter, ""))
}

// GetValueRecordsForMetric returns the captured value records of metric.
func (s *MetricsCollectorSpy) GetValueRecordsForMetric(metric string) []SpyMetricRecord {
	return s.recordsOf(MetricValue, metric)
}

// recordsOf returns the records of kind, restricted to metric unless it is empty.
func (s *MetricsCollectorSpy) recordsOf(kind MetricKind, metric string) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matching []SpyMetricRecord
	for _, record := range s.records {
		if record.Kind == kind && (metric == "" || record.Metric == metric) {
			matching = append(matching, record)
		}
	}

	return matching
}

// HasDurationRecordForMetric starts a label check on the first duration record of metric.
func (s *MetricsCollectorSpy) HasDurationRecordForMetric(metric string) *MetricRecordMatcher {
	return newMetricRecordMatcher(s.recordsOf(MetricDuration, metric))
}

// HasCounterRecordForMetric starts a label check on the first counter record of metric.
func (s *MetricsCollectorSpy) HasCounterRecordForMetric(metric string) *MetricRecordMatcher {
	return newMetricRecordMatcher(s.recordsOf(MetricCounter, metric))
}

// MetricRecordMatcher checks the labels of one captured record, fluently.
type MetricRecordMatcher struct {
	labels map[string]string
	found  bool
}

func newMetricRecordMatcher(records []SpyMetricRecord) *MetricRecordMatcher {
	if len(records) == 0 {
		return &MetricRecordMatcher{}
	}

	return &MetricRecordMatcher{labels: records[0].Labels, found: true}
}

// WithOperation requires the operation label.
func (m *MetricRecordMatcher) WithOperation(operation string) *MetricRecordMatcher {
	return m.withLabel("operation", operation)
}

// WithStatus requires the status label.
func (m *MetricRecordMatcher) WithStatus(status string) *MetricRecordMatcher {
	return m.withLabel("status", status)
}

// WithErrorType requires the error_type label.
func (m *MetricRecordMatcher) WithErrorType(errorType string) *MetricRecordMatcher {
	return m.withLabel("error_type", errorType)
}

func (m *MetricRecordMatcher) withLabel(key, value string) *MetricRecordMatcher {
	if actual, ok := m.labels[key]; !ok || actual != value {
		m.found = false
	}

	return m
}

// Assert reports whether the record exists and every check passed.
func (m *MetricRecordMatcher) Assert() bool {
	return m.found
}

var _ persistence.MetricsCollector = (*MetricsCollectorSpy)(nil)
