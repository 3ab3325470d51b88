package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/soildata/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSafeAttributes(t *testing.T) {
	long := strings.Repeat("x", maxAttributeLength+10)
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/soildatas/:id"),
		attribute.String("db.statement", "SELECT 1"),
		attribute.String("note", long),
	)

	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
	assert.Len(t, attrs[1].Value.AsString(), maxAttributeLength)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.EqualError(t, SafeError(errors.New("first line\nsecond line")), "first line")
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestGinMiddlewareRecordsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := useSpanRecorder(t)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.DELETE("/api/plots/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("database unavailable"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/plots/7", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP DELETE /api/plots/:id", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestGinMiddlewareNamesSpanAfterOperation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := useSpanRecorder(t)

	var seen string
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		Operations: map[string]string{
			RouteKey(http.MethodGet, "/api/soildatas/:id"): "soildata.get",
		},
	}))
	r.GET("/api/soildatas/:id", func(c *gin.Context) {
		seen = obscontext.OperationFromContext(c.Request.Context())
		_ = c.Error(errors.New("soil data measurement not found"))
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/soildatas/42", nil))

	assert.Equal(t, "soildata.get", seen)
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "soildata.get", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	recordID, ok := spanAttr(spans[0], "soildata.record_id")
	require.True(t, ok)
	assert.Equal(t, "42", recordID.AsString())
	rejection, ok := spanAttr(spans[0], "soildata.rejection")
	require.True(t, ok)
	assert.Equal(t, "soil data measurement not found", rejection.AsString())
}

func TestGinMiddlewareSkipsProbeRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := useSpanRecorder(t)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{SkipRoutes: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/plots", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/health", "/api/plots"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /api/plots", spans[0].Name())
}

func TestWrapHTTPClientInjectsTraceContext(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	var traceparent string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(upstream.Close)

	client := WrapHTTPClient(nil)
	resp, err := client.Get(upstream.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.True(t, strings.Contains(traceparent, spans[0].SpanContext().TraceID().String()))
}
