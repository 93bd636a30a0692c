package observability

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/user-service/internal/config"
)

const tracerName = "github.com/spec-kit/user-service"

// SetupTracing initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: without an endpoint, or with OTEL_ENABLED=false, it
// returns a no-op shutdown and leaves the global no-op provider in place.
func SetupTracing(ctx context.Context, cfg config.TracingConfig, serviceName, version string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracing starts a server span per request and stores it in the user context.
func Tracing() fiber.Handler {
	tracer := otel.Tracer(tracerName)
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier{}
		c.Request().Header.VisitAll(func(key, value []byte) {
			carrier.Set(string(key), string(value))
		})
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Path(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.request.method", c.Method()),
			attribute.String("http.route", c.Route().Path),
			attribute.Int("http.response.status_code", status),
		)
		if err != nil || status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "request failed")
		}
		return err
	}
}
