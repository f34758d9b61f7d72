package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel/metric"
)

// RegisterPerfStats reports process gauges on each metric collection, until
// the returned registration is unregistered.
func RegisterPerfStats(meter metric.Meter) (metric.Registration, error) {
	cpuGauge, cpuErr := meter.Float64ObservableGauge("process.cpu_usage", metric.WithUnit("%"))
	memoryGauge, memoryErr := meter.Int64ObservableGauge("process.allocated_mb", metric.WithUnit("MBy"))
	liveObjectsGauge, liveObjectsErr := meter.Int64ObservableGauge("process.live_objects")
	goroutineGauge, goroutineErr := meter.Int64ObservableGauge("process.goroutines")
	err := errors.Join(cpuErr, memoryErr, liveObjectsErr, goroutineErr)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			o.ObserveInt64(memoryGauge, int64(memStats.Alloc/1_000_000))
			o.ObserveInt64(liveObjectsGauge, int64(memStats.Mallocs)-int64(memStats.Frees))
			o.ObserveInt64(goroutineGauge, int64(runtime.NumGoroutine()))

			// usage since the previous collection
			usage, err := cpu.PercentWithContext(ctx, 0, false)
			if err != nil || len(usage) == 0 {
				slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
				return nil
			}
			o.ObserveFloat64(cpuGauge, usage[0])
			return nil
		},
		cpuGauge, memoryGauge, liveObjectsGauge, goroutineGauge,
	)
}
