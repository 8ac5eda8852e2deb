package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "recipe-catalog"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	RegisterRequestsTotal  metric.Int64Counter
	LoginAttemptsTotal     metric.Int64Counter
	RecipeSearchDuration   metric.Float64Histogram
	RecipeSearchResults    metric.Int64Histogram
	CategoryCacheLookups   metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Call it after the provider is installed so the instruments export through it.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		m := &AppMetrics{}

		m.HTTPRequestsTotal = must(meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests served"),
			metric.WithUnit("{request}"),
		))
		m.HTTPRequestDuration = must(meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		))
		m.RegisterRequestsTotal = must(meter.Int64Counter(
			"register_requests_total",
			metric.WithDescription("Total number of register requests completed"),
			metric.WithUnit("{request}"),
		))
		m.LoginAttemptsTotal = must(meter.Int64Counter(
			"login_attempts_total",
			metric.WithDescription("Total number of login attempts by outcome"),
			metric.WithUnit("{attempt}"),
		))
		m.RecipeSearchDuration = must(meter.Float64Histogram(
			"recipe_search_duration_seconds",
			metric.WithDescription("Duration of recipe searches in seconds"),
			metric.WithUnit("s"),
		))
		m.RecipeSearchResults = must(meter.Int64Histogram(
			"recipe_search_results",
			metric.WithDescription("Total matching items reported by recipe searches"),
			metric.WithUnit("{recipe}"),
		))
		m.CategoryCacheLookups = must(meter.Int64Counter(
			"category_cache_lookups_total",
			metric.WithDescription("Category list cache lookups by result"),
			metric.WithUnit("{lookup}"),
		))
		m.DbQueryDurationSeconds = must(meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		))
		m.DbQueryErrorsTotal = must(meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		))

		appMetrics = m
	})
}

// Get returns the instruments, creating them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// RecordDBQuery records the latency of a repository operation and counts it
// as an error when err is non-nil.
func RecordDBQuery(ctx context.Context, operation string, start time.Time, err error) {
	m := Get()
	attrs := metric.WithAttributes(attribute.String("db.operation", operation))
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func must[T any](instrument T, err error) T {
	if err != nil {
		log.Fatalf("Metrics: failed to create instrument: %v", err)
	}
	return instrument
}
