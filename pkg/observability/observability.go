package observability

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// SetupTracing initializes OpenTelemetry tracing with stdout exporter (for demo; replace with OTLP in prod)
func SetupTracing(serviceName string) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("failed to initialize stdouttrace exporter: %v", err)
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupPrometheusMetrics initializes Prometheus metrics exporter and exposes /metrics endpoint
func SetupPrometheusMetrics() *sdkmetric.MeterProvider {
	exp, err := prometheus.New()
	if err != nil {
		log.Fatalf("failed to initialize prometheus exporter: %v", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(":2112", nil)
	}()
	return mp
}

// Metrics holds the chat-specific instruments. A nil *Metrics is valid and
// records nothing, so wiring is optional for callers like the terminal client.
type Metrics struct {
	messagesCreated metric.Int64Counter
	gatewayCalls    metric.Int64Counter
	gatewayLatency  metric.Float64Histogram
}

// NewMetrics creates the chat instruments on the given meter provider.
func NewMetrics(mp *sdkmetric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("chat-console")

	messagesCreated, err := meter.Int64Counter("chat_messages_created_total",
		metric.WithDescription("Messages persisted, by role"))
	if err != nil {
		return nil, err
	}
	gatewayCalls, err := meter.Int64Counter("chat_gateway_calls_total",
		metric.WithDescription("Inference gateway calls, by model and outcome"))
	if err != nil {
		return nil, err
	}
	gatewayLatency, err := meter.Float64Histogram("chat_gateway_latency_seconds",
		metric.WithDescription("Inference gateway call latency"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		messagesCreated: messagesCreated,
		gatewayCalls:    gatewayCalls,
		gatewayLatency:  gatewayLatency,
	}, nil
}

// RecordMessage counts one persisted message.
func (m *Metrics) RecordMessage(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.messagesCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// StartGatewayCall starts timing a gateway call. The returned func records
// the outcome and latency when invoked with the call's error.
func (m *Metrics) StartGatewayCall(ctx context.Context, model string) func(error) {
	if m == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("outcome", outcome),
		)
		m.gatewayCalls.Add(ctx, 1, attrs)
		m.gatewayLatency.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
