package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/Telehealthmarketplace/backend"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount       metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	ActionCount        metric.Int64Counter
	DashboardFetch     metric.Float64Histogram
	StaleResponseCount metric.Int64Counter
	PaymentOutcome     metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics and Go runtime instrumentation
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		GetLogger().Warn().Err(err).Msg("Go runtime metrics disabled")
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			meterProvider.Shutdown(ctx),
			tracerProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics against the global meter provider
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	actionCount, err := meter.Int64Counter(
		"dashboard.action.count",
		metric.WithDescription("Dispatched dashboard actions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	dashboardFetch, err := meter.Float64Histogram(
		"dashboard.fetch.duration",
		metric.WithDescription("Marketplace dashboard read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	staleCount, err := meter.Int64Counter(
		"dashboard.fetch.stale",
		metric.WithDescription("Dashboard responses discarded because a newer fetch started"),
	)
	if err != nil {
		return nil, err
	}

	paymentOutcome, err := meter.Int64Counter(
		"payment.checkout.outcome",
		metric.WithDescription("Checkout attempts by terminal state"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:       requestCount,
		RequestDuration:    requestDuration,
		ActionCount:        actionCount,
		DashboardFetch:     dashboardFetch,
		StaleResponseCount: staleCount,
		PaymentOutcome:     paymentOutcome,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordActionMetric records one dispatched action
func RecordActionMetric(ctx context.Context, metrics *Metrics, role, action, outcome string) {
	if metrics == nil {
		return
	}
	metrics.ActionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dashboard.role", role),
		attribute.String("dashboard.action", action),
		attribute.String("outcome", outcome),
	))
}

// RecordDashboardFetch records the latency of a dashboard read
func RecordDashboardFetch(ctx context.Context, metrics *Metrics, role string, duration time.Duration, stale bool) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dashboard.role", role))
	metrics.DashboardFetch.Record(ctx, float64(duration.Milliseconds()), attrs)
	if stale {
		metrics.StaleResponseCount.Add(ctx, 1, attrs)
	}
}

// RecordPaymentOutcome records the terminal state of a checkout
func RecordPaymentOutcome(ctx context.Context, metrics *Metrics, kind, state string) {
	if metrics == nil {
		return
	}
	metrics.PaymentOutcome.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment.kind", kind),
		attribute.String("payment.state", state),
	))
}
