package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	measurementsCreated metric.Int64Counter
	measurementsUpdated metric.Int64Counter
	measurementsDeleted metric.Int64Counter
	validationRejected  metric.Int64Counter
	plotsCreated        metric.Int64Counter
	plotsDeleted        metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "soildata"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	if m.measurementsCreated, err = meter.Int64Counter("soildata_measurements_created_total"); err != nil {
		return nil, err
	}
	if m.measurementsUpdated, err = meter.Int64Counter("soildata_measurements_updated_total"); err != nil {
		return nil, err
	}
	if m.measurementsDeleted, err = meter.Int64Counter("soildata_measurements_deleted_total"); err != nil {
		return nil, err
	}
	if m.validationRejected, err = meter.Int64Counter("soildata_validation_rejected_total"); err != nil {
		return nil, err
	}
	if m.plotsCreated, err = meter.Int64Counter("soildata_plots_created_total"); err != nil {
		return nil, err
	}
	if m.plotsDeleted, err = meter.Int64Counter("soildata_plots_deleted_total"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordMeasurementsCreated counts stored readings; source is "single" or "bulk".
func (m *Metrics) RecordMeasurementsCreated(ctx context.Context, source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.measurementsCreated.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordMeasurementUpdated(ctx context.Context) {
	if m == nil {
		return
	}
	m.measurementsUpdated.Add(ctx, 1)
}

func (m *Metrics) RecordMeasurementDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.measurementsDeleted.Add(ctx, 1)
}

// RecordValidationRejected counts writes refused for a given field.
func (m *Metrics) RecordValidationRejected(ctx context.Context, field, code string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("field", strings.TrimSpace(field)),
		attribute.String("code", strings.TrimSpace(code)),
	)
	m.validationRejected.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPlotCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.plotsCreated.Add(ctx, 1)
}

func (m *Metrics) RecordPlotDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.plotsDeleted.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":      {},
	"field":       {},
	"code":        {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
