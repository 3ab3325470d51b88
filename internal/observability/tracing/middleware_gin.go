package tracing

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/soildata/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "soildata/http"

// MiddlewareConfig maps matched routes to operation names and lists routes
// that are served without a span.
type MiddlewareConfig struct {
	// Operations is keyed by "METHOD /route/:param".
	Operations map[string]string
	SkipRoutes []string
}

// RouteKey builds the Operations key for a method and gin route pattern.
func RouteKey(method, route string) string {
	return strings.ToUpper(method) + " " + route
}

// GinMiddleware opens a server span per request named after the soildata
// operation the route serves. The operation is also put on the request context
// so service logs and the span agree on it.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	skip := make(map[string]struct{}, len(cfg.SkipRoutes))
	for _, route := range cfg.SkipRoutes {
		skip[route] = struct{}{}
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skip[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = "unknown"
		}
		method := strings.ToUpper(c.Request.Method)
		operation := cfg.Operations[RouteKey(method, route)]

		spanName := "HTTP " + method + " " + route
		if operation != "" {
			spanName = operation
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if operation != "" {
			ctx = obscontext.WithOperation(ctx, operation)
			span.SetAttributes(attribute.String("soildata.operation", operation))
		}
		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			ctx = withRequestIDBaggage(ctx, requestID)
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if id := c.Param("id"); id != "" {
			span.SetAttributes(SafeAttributes(attribute.String("soildata.record_id", id))...)
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)

		switch {
		case status >= http.StatusInternalServerError:
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		case status >= http.StatusBadRequest:
			// Client errors leave the span status unset.
			if lastErr := c.Errors.Last(); lastErr != nil {
				span.SetAttributes(attribute.String("soildata.rejection", SafeError(lastErr.Err).Error()))
			}
		}
	}
}

func withRequestIDBaggage(ctx context.Context, requestID string) context.Context {
	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.New(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
