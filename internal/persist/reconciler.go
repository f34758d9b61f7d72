package persist

import (
	"context"
	"streamstats-backend/internal/records"
	"streamstats-backend/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_reconciler_replay    = "reconciler.replay"
	report_reconciler_partition = "reconciler.partition"
	report_reconciler_pending   = "reconciler.pending"
)

// PartitionReport describes one partition's reconciliation pass.
type PartitionReport struct {
	Kind         records.Kind
	Pending      int
	Recovered    int
	StillFailing int
	// Err is set when the partition could not be read or rewritten, the
	// partition is left as it was found in the former case.
	Err error
}

// Reconciler replays the pending queue into the store.
type Reconciler struct {
	store Store
	queue Queue
	tel   telemetry.API
}

func NewReconciler(store Store, queue Queue, tel telemetry.API) Reconciler {
	return Reconciler{
		store: store,
		queue: queue,
		tel:   telemetry.NewScopedAPI("persist", tel),
	}
}

// Reconcile replays every partition, streamers first. Each partition is
// rewritten to hold only the records that failed again, the rewrite replaces
// the partition instead of appending to it. Failures of one partition do not
// stop the others.
func (r Reconciler) Reconcile(ctx context.Context) ([]PartitionReport, error) {
	ctx, span := tracer.Start(ctx, "Reconciler.Reconcile")
	defer span.End()

	if !r.store.Connected() {
		span.SetStatus(codes.Error, ErrNotConnected.Error())
		return nil, ErrNotConnected
	}

	reports := make([]PartitionReport, 0, len(records.Kinds))
	for _, kind := range records.Kinds {
		report := r.reconcilePartition(ctx, kind)
		if report.Err != nil {
			r.tel.ReportBroken(report_reconciler_partition, string(kind), report.Err)
			span.RecordError(report.Err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r Reconciler) reconcilePartition(ctx context.Context, kind records.Kind) PartitionReport {
	ctx, span := tracer.Start(ctx, "Reconciler.reconcilePartition")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	report := PartitionReport{Kind: kind}

	err := r.queue.Ensure(kind)
	if err != nil {
		report.Err = err
		span.SetStatus(codes.Error, err.Error())
		return report
	}
	pending, err := r.queue.Load(kind)
	if err != nil {
		report.Err = err
		span.SetStatus(codes.Error, err.Error())
		return report
	}
	report.Pending = len(pending)
	if len(pending) == 0 {
		r.tel.ReportDebug("partition is empty", string(kind))
		return report
	}

	stillFailing := []records.Record{}
	for _, rec := range pending {
		err := r.replay(ctx, kind, rec)
		if err != nil {
			r.tel.ReportWarning(report_reconciler_replay, rec.Name(), err)
			stillFailing = append(stillFailing, rec)
			continue
		}
		report.Recovered++
	}
	report.StillFailing = len(stillFailing)

	kindAttr := metric.WithAttributes(attribute.String("kind", string(kind)))
	recoveredCounter.Add(ctx, int64(report.Recovered), kindAttr)
	stillFailingCounter.Add(ctx, int64(report.StillFailing), kindAttr)

	err = r.queue.Replace(kind, stillFailing)
	if err != nil {
		report.Err = err
		span.SetStatus(codes.Error, err.Error())
		return report
	}

	r.tel.ReportCount(report_reconciler_pending+"."+string(kind), int64(report.StillFailing))
	r.tel.ReportDebug(
		"finished replaying partition",
		string(kind), report.Recovered, report.StillFailing,
	)
	return report
}

func (r Reconciler) replay(ctx context.Context, kind records.Kind, rec records.Record) error {
	if rec.Kind != kind {
		return records.ErrPayloadMismatch
	}
	err := rec.Validate()
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, rec)
}
