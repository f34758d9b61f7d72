package pendingqueue

import (
	"context"
	"streamstats-backend/internal/records"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RegisterGauges reports the size of every partition on each metric
// collection, until the returned registration is unregistered.
func (q *Queue) RegisterGauges(meter metric.Meter) (metric.Registration, error) {
	sizeGauge, err := meter.Int64ObservableGauge(
		"pending_queue.size",
		metric.WithDescription("Size of a pending queue partition."),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}
	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		for _, kind := range records.Kinds {
			size, err := q.Size(kind)
			if err != nil {
				return err
			}
			o.ObserveInt64(sizeGauge, size, metric.WithAttributes(attribute.String("kind", string(kind))))
		}
		return nil
	}, sizeGauge)
}
