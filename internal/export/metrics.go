package export

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tacticboard/export"

type metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	requests, err := meter.Int64Counter("export.requests",
		metric.WithDescription("Field exports by format and outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("export.duration",
		metric.WithDescription("Time spent rendering a field export"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("export.in_flight",
		metric.WithDescription("Exports holding a render context"))
	if err != nil {
		return nil, err
	}
	return &metrics{requests: requests, duration: duration, inFlight: inFlight}, nil
}

func (m *metrics) record(ctx context.Context, f Format, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("format", string(f)),
		attribute.String("outcome", outcome),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
