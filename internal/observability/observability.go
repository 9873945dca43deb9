package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const serviceName = "alexa-smarthome-bridge"

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alexa_bridge_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		},
		[]string{"route", "method", "status"},
	)
	DirectiveCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alexa_bridge_directives_total",
			Help: "Alexa directives by namespace, name and outcome.",
		},
		[]string{"namespace", "name", "outcome"},
	)
	HubUpdateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alexa_bridge_hub_updates_total",
			Help: "Hub item updates by outcome.",
		},
		[]string{"outcome"},
	)
	ReportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alexa_bridge_periodic_reports_total",
			Help: "Periodic report runs by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, DirectiveCounter, HubUpdateCounter, ReportCounter)
}

// Outcome labels a counter with "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Setup installs the global tracer provider. Spans are sampled but only
// exported when an exporter is registered on the returned provider.
func Setup(ctx context.Context) (shutdown func(context.Context) error, metrics http.Handler, tracer oteltrace.Tracer, err error) {
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, promhttp.Handler(), tp.Tracer(serviceName), nil
}
