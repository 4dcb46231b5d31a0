package helper

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

// SpySpan is one captured span. Engines write attributes and status into it while it is open.
type SpySpan struct {
	mu              sync.Mutex
	Name            string
	StartAttributes map[string]string
	EndAttributes   map[string]string
	Status          string
	spanAttributes  map[string]string
}

// SetStatus implements persistence.SpanContext.
func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = status
}

// AddAttribute implements persistence.SpanContext.
func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spanAttributes == nil {
		s.spanAttributes = make(map[string]string)
	}
	s.spanAttributes[key] = value
}

// TracingCollectorSpy captures the spans an engine starts and finishes.
type TracingCollectorSpy struct {
	mu          sync.Mutex
	spans       []*SpySpan
	recordCalls bool
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy that captures spans only if recordCalls is true.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{recordCalls: recordCalls}
}

// StartSpan implements persistence.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, persistence.SpanContext) {
	if !s.recordCalls {
		return ctx, nil
	}

	span := &SpySpan{Name: name, StartAttributes: maps.Clone(attrs)}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, span)

	return ctx, span
}

// FinishSpan implements persistence.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx persistence.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	span.mu.Lock()
	defer span.mu.Unlock()

	span.Status = status
	span.EndAttributes = maps.Clone(attrs)
}

// Reset drops every captured span.
func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = nil
}

// GetSpanRecordsForName returns the captured spans called name.
func (s *TracingCollectorSpy) GetSpanRecordsForName(name string) []*SpySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	var spans []*SpySpan
	for _, span := range s.spans {
		if span.Name == name {
			spans = append(spans, span)
		}
	}

	return spans
}

// CountSpanRecordsForName returns how many spans called name were captured.
func (s *TracingCollectorSpy) CountSpanRecordsForName(name string) int {
	return len(s.GetSpanRecordsForName(name))
}

// HasSpanRecordForName starts a fluent check on the first span called name.
func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanRecordMatcher {
	spans := s.GetSpanRecordsForName(name)
	if len(spans) == 0 {
		return &SpanRecordMatcher{}
	}

	return &SpanRecordMatcher{span: spans[0], found: true}
}

// SpanRecordMatcher checks one captured span, fluently.
type SpanRecordMatcher struct {
	span  *SpySpan
	found bool
}

// WithStatus requires the status the span finished with.
func (m *SpanRecordMatcher) WithStatus(status string) *SpanRecordMatcher {
	return m.check(func(span *SpySpan) bool { return span.Status == status })
}

// WithStartAttribute requires an attribute passed to StartSpan.
func (m *SpanRecordMatcher) WithStartAttribute(key, value string) *SpanRecordMatcher {
	return m.check(func(span *SpySpan) bool { return hasEntry(span.StartAttributes, key, value) })
}

// WithEndAttribute requires an attribute passed to FinishSpan.
func (m *SpanRecordMatcher) WithEndAttribute(key, value string) *SpanRecordMatcher {
	return m.check(func(span *SpySpan) bool { return hasEntry(span.EndAttributes, key, value) })
}

// WithSpanAttribute requires an attribute added through the span context while the span was open.
func (m *SpanRecordMatcher) WithSpanAttribute(key, value string) *SpanRecordMatcher {
	return m.check(func(span *SpySpan) bool { return hasEntry(span.spanAttributes, key, value) })
}

func (m *SpanRecordMatcher) check(condition func(span *SpySpan) bool) *SpanRecordMatcher {
	if !m.found {
		return m
	}

	m.span.mu.Lock()
	defer m.span.mu.Unlock()

	m.found = condition(m.span)

	return m
}

// Assert reports whether the span exists and every check passed.
func (m *SpanRecordMatcher) Assert() bool {
	return m.found
}

func hasEntry(attributes map[string]string, key, value string) bool {
	actual, ok := attributes[key]
	return ok && actual == value
}

var (
	_ persistence.TracingCollector = (*TracingCollectorSpy)(nil)
	_ persistence.SpanContext      = (*SpySpan)(nil)
)
