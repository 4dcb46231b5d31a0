package helper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogHandlerSpy is a slog.Handler that captures every record, optionally echoing it to stdout as JSON.
type LogHandlerSpy struct {
	mu      sync.Mutex
	records []slog.Record
	echo    slog.Handler
}

// NewLogHandlerSpy creates a new LogHandlerSpy. Set logToStdout to see the log output while debugging a test.
func NewLogHandlerSpy(logToStdout bool) *LogHandlerSpy {
	spy := &LogHandlerSpy{}
	if logToStdout {
		spy.echo = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return spy
}

// Handle implements slog.Handler.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	s.records = append(s.records, record.Clone())
	s.mu.Unlock()

	if s.echo != nil {
		return s.echo.Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler. Every level is captured.
func (s *LogHandlerSpy) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. Engines log flat attributes only, so handler attributes are ignored.
func (s *LogHandlerSpy) WithAttrs([]slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler.
func (s *LogHandlerSpy) WithGroup(string) slog.Handler {
	return s
}

// Reset drops every captured record.
func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// CountLogsWithPrefix counts the records of level whose message starts with prefix.
func (s *LogHandlerSpy) CountLogsWithPrefix(level slog.Level, prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.records {
		if record.Level == level && strings.HasPrefix(record.Message, prefix) {
			count++
		}
	}

	return count
}

// HasDebugLogWithMessage starts a fluent check on the last debug record with message.
func (s *LogHandlerSpy) HasDebugLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.lastWithMessage(slog.LevelDebug, message)
}

// HasInfoLogWithMessage starts a fluent check on the last info record with message.
func (s *LogHandlerSpy) HasInfoLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.lastWithMessage(slog.LevelInfo, message)
}

// HasErrorLogWithMessage starts a fluent check on the last error record with message.
func (s *LogHandlerSpy) HasErrorLogWithMessage(message string) *SpyLogRecordMatcher {
	return s.lastWithMessage(slog.LevelError, message)
}

func (s *LogHandlerSpy) lastWithMessage(level slog.Level, message string) *SpyLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Level == level && s.records[i].Message == message {
			return &SpyLogRecordMatcher{attrs: attrsOf(s.records[i]), found: true}
		}
	}

	return &SpyLogRecordMatcher{}
}

func attrsOf(record slog.Record) map[string]slog.Value {
	attrs := make(map[string]slog.Value, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		attrs[attr.Key] = attr.Value.Resolve()
		return true
	})

	return attrs
}

// SpyLogRecordMatcher checks the attributes of one captured record, fluently.
type SpyLogRecordMatcher struct {
	attrs map[string]slog.Value
	found bool
}

// WithDurationMS requires a non-negative numeric duration_ms attribute.
func (m *SpyLogRecordMatcher) WithDurationMS() *SpyLogRecordMatcher {
	return m.check("duration_ms", func(value slog.Value) bool {
		switch value.Kind() {
		case slog.KindInt64:
			return value.Int64() >= 0
		case slog.KindFloat64:
			return value.Float64() >= 0
		default:
			return false
		}
	})
}

// WithRows requires an integer rows attribute equal to rows.
func (m *SpyLogRecordMatcher) WithRows(rows int64) *SpyLogRecordMatcher {
	return m.check("rows", func(value slog.Value) bool {
		return value.Kind() == slog.KindInt64 && value.Int64() == rows
	})
}

// WithAttribute requires an attribute whose value prints as value.
func (m *SpyLogRecordMatcher) WithAttribute(key, value string) *SpyLogRecordMatcher {
	return m.check(key, func(actual slog.Value) bool {
		return fmt.Sprint(actual.Any()) == value
	})
}

// WithAttributeKey requires an attribute named key, whatever its value.
func (m *SpyLogRecordMatcher) WithAttributeKey(key string) *SpyLogRecordMatcher {
	return m.check(key, func(slog.Value) bool { return true })
}

func (m *SpyLogRecordMatcher) check(key string, condition func(value slog.Value) bool) *SpyLogRecordMatcher {
	if !m.found {
		return m
	}

	value, ok := m.attrs[key]
	m.found = ok && condition(value)

	return m
}

// Assert reports whether the record exists and every check passed.
func (m *SpyLogRecordMatcher) Assert() bool {
	return m.found
}
