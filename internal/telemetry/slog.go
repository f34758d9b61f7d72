package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SlogAPI implements API using the log/slog package. Counts are also recorded
// on the `telemetry.count` gauge when it was built with NewSlogAPI, the zero
// value only logs.
type SlogAPI struct {
	counts metric.Int64Gauge
}

func NewSlogAPI(meter metric.Meter) (SlogAPI, error) {
	counts, err := meter.Int64Gauge(
		"telemetry.count",
		metric.WithDescription("Latest value reported through ReportCount, by id."),
	)
	if err != nil {
		return SlogAPI{}, err
	}
	return SlogAPI{counts: counts}, nil
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		if err, ok := p.(error); ok {
			p = err.Error()
		}
		*out = append(*out, fmt.Sprintf("params.%d", i), p)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	attrs := []any{"id", id}
	s.formatParams(&attrs, params)
	slog.Error("broken component", attrs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	attrs := []any{"id", id}
	s.formatParams(&attrs, params)
	slog.Warn("warning", attrs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	var attrs []any
	s.formatParams(&attrs, params)
	slog.Debug(message, attrs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
	if s.counts != nil {
		s.counts.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	}
}
