package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/rxhttp/logger"
)

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The provider should be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded for HTTP transfers.
type Metrics struct {
	transferTotal    metric.Int64Counter
	transferDuration metric.Float64Histogram
	transferActive   metric.Int64UpDownCounter
	transferBytes    metric.Int64Counter
	decodeTotal      metric.Int64Counter
}

// NewMetrics creates the transfer instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transferTotal, err := meter.Int64Counter("rxhttp.transfer.total",
		metric.WithDescription("Finished transfers by kind and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rxhttp.transfer.total counter: %w", err)
	}

	transferDuration, err := meter.Float64Histogram("rxhttp.transfer.duration",
		metric.WithDescription("Time from start to end of body"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rxhttp.transfer.duration histogram: %w", err)
	}

	transferActive, err := meter.Int64UpDownCounter("rxhttp.transfer.active",
		metric.WithDescription("Transfers currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rxhttp.transfer.active counter: %w", err)
	}

	transferBytes, err := meter.Int64Counter("rxhttp.transfer.bytes",
		metric.WithDescription("Body bytes sent and received"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rxhttp.transfer.bytes counter: %w", err)
	}

	decodeTotal, err := meter.Int64Counter("rxhttp.decode.total",
		metric.WithDescription("Response bodies decoded by format and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rxhttp.decode.total counter: %w", err)
	}

	return &Metrics{
		transferTotal:    transferTotal,
		transferDuration: transferDuration,
		transferActive:   transferActive,
		transferBytes:    transferBytes,
		decodeTotal:      decodeTotal,
	}, nil
}

// RecordTransferStart increments the active transfer count.
func (m *Metrics) RecordTransferStart(ctx context.Context, kind string) {
	m.transferActive.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrKind, kind)))
}

// RecordTransferEnd decrements the active count and records the finished transfer.
func (m *Metrics) RecordTransferEnd(ctx context.Context, session, kind, method, outcome string, duration time.Duration) {
	m.transferActive.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrKind, kind)))
	m.transferTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrSession, session),
		attribute.String(AttrKind, kind),
		attribute.String(AttrMethod, method),
		attribute.String(AttrOutcome, outcome),
	))
	m.transferDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrSession, session),
		attribute.String(AttrKind, kind),
	))
}

// RecordBytes adds the bytes sent and received by one transfer.
func (m *Metrics) RecordBytes(ctx context.Context, kind string, up, down int64) {
	if up > 0 {
		m.transferBytes.Add(ctx, up, metric.WithAttributes(
			attribute.String(AttrKind, kind),
			attribute.String(AttrDirection, "up"),
		))
	}
	if down > 0 {
		m.transferBytes.Add(ctx, down, metric.WithAttributes(
			attribute.String(AttrKind, kind),
			attribute.String(AttrDirection, "down"),
		))
	}
}

// RecordDecode counts one response body decode attempt.
func (m *Metrics) RecordDecode(ctx context.Context, format string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.decodeTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFormat, format),
		attribute.String(AttrOutcome, outcome),
	))
}
