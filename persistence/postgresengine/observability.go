package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AntonStoeckl/relational-persistence-go/persistence"
)

const (
	metricPrefix         = "persistence_"
	metricDurationSuffix = "_duration_seconds"
	metricRowsReturned   = "persistence_rows_returned"
	metricDatabaseErrors = "persistence_database_errors_total"
	spanNamePrefix       = "persistence."
	spanAttrOperation    = "operation"
	spanAttrTable        = "table"
	spanAttrRows         = "rows"
	spanAttrErrorType    = "error_type"
	spanAttrDurationMS   = "duration_ms"
	labelStatus          = "status"
	statusSuccess        = "success"
	statusError          = "error"
	errorTypeCanceled    = "canceled"
	errorTypeTimeout     = "timeout"
	errorTypeUnknown     = "unknown"
)

// instrumentation bundles the optional logging, metrics and tracing collaborators of an engine.
type instrumentation struct {
	quotedTable      string
	debug            bool
	logger           persistence.Logger
	contextualLogger persistence.ContextualLogger
	metricsCollector persistence.MetricsCollector
	tracingCollector persistence.TracingCollector
}

// logSQL logs a statement with its execution time at debug level when debugging is enabled.
func (in *instrumentation) logSQL(ctx context.Context, operation, sqlQuery string, duration time.Duration) {
	if !in.debug {
		return
	}

	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if in.logger != nil {
		in.logger.Debug(logMsgSQLExecuted+operation, args...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, args...)
	}
}

// logOperation logs operational information at info level.
func (in *instrumentation) logOperation(ctx context.Context, action string, args ...any) {
	if in.logger != nil {
		in.logger.Info(logMsgOperation+action, args...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical failures at warn level.
func (in *instrumentation) logWarn(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if in.logger != nil {
		in.logger.Warn(message, allArgs...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

// logError logs error information at error level.
func (in *instrumentation) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if in.logger != nil {
		in.logger.Error(message, allArgs...)
	}

	if in.contextualLogger != nil {
		in.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// recordDuration records an operation duration, preferring the context-aware method.
func (in *instrumentation) recordDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if in.metricsCollector == nil {
		return
	}

	metric := metricPrefix + operation + metricDurationSuffix
	labels := map[string]string{spanAttrOperation: operation, labelStatus: status}

	if contextual, ok := in.metricsCollector.(persistence.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	in.metricsCollector.RecordDuration(metric, duration, labels)
}

// recordRows records the number of rows an operation returned or affected.
func (in *instrumentation) recordRows(ctx context.Context, operation string, rows int) {
	if in.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, labelStatus: statusSuccess}

	if contextual, ok := in.metricsCollector.(persistence.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metricRowsReturned, float64(rows), labels)
		return
	}

	in.metricsCollector.RecordValue(metricRowsReturned, float64(rows), labels)
}

// recordError counts a failed operation.
func (in *instrumentation) recordError(ctx context.Context, operation, errorType string) {
	if in.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation, labelStatus: statusError, spanAttrErrorType: errorType}

	if contextual, ok := in.metricsCollector.(persistence.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	in.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// operationObserver tracks one public engine operation: its span, its metrics and its outcome log.
type operationObserver struct {
	in        *instrumentation
	ctx       context.Context
	operation string
	span      persistence.SpanContext
	start     time.Time
}

// startOperation opens the span for an operation and returns the context to run it in.
func (in *instrumentation) startOperation(ctx context.Context, operation string) (*operationObserver, context.Context) {
	var span persistence.SpanContext

	if in.tracingCollector != nil {
		ctx, span = in.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{
			spanAttrOperation: operation,
			spanAttrTable:     in.quotedTable,
		})
	}

	return &operationObserver{
		in:        in,
		ctx:       ctx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}, ctx
}

// finishSuccess completes the operation after rows were returned or affected.
func (o *operationObserver) finishSuccess(rows int) {
	duration := time.Since(o.start)

	o.in.recordDuration(o.ctx, o.operation, statusSuccess, duration)
	o.in.recordRows(o.ctx, o.operation, rows)

	attrs := map[string]string{
		spanAttrRows:       fmt.Sprintf("%d", rows),
		spanAttrDurationMS: formatMilliseconds(duration),
	}

	if o.span != nil {
		o.span.SetStatus(statusSuccess)
		o.in.tracingCollector.FinishSpan(o.span, statusSuccess, attrs)
	}

	o.in.logOperation(o.ctx, o.operation, logAttrRows, rows, logAttrDurationMS, toMilliseconds(duration))
}

// finishError completes the operation with a failure.
func (o *operationObserver) finishError(err error) {
	duration := time.Since(o.start)
	errorType := classifyError(err)

	o.in.recordDuration(o.ctx, o.operation, statusError, duration)
	o.in.recordError(o.ctx, o.operation, errorType)

	if o.span != nil {
		o.span.SetStatus(statusError)
		o.span.AddAttribute(spanAttrErrorType, errorType)
		o.in.tracingCollector.FinishSpan(o.span, statusError, map[string]string{
			spanAttrErrorType:  errorType,
			spanAttrDurationMS: formatMilliseconds(duration),
		})
	}

	o.in.logError(o.ctx, logMsgOperationFailed+o.operation, err, logAttrErrorType, errorType)
}

// classifyError derives a low-cardinality error type label from an error.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return errorTypeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeTimeout
	}

	var persistenceErr *persistence.Error
	if errors.As(err, &persistenceErr) {
		return strings.ToLower(persistenceErr.Code)
	}

	return errorTypeUnknown
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatMilliseconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6)
}
