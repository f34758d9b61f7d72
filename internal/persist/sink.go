package persist

import (
	"context"
	"fmt"
	"strings"
	"streamstats-backend/internal/records"
	"streamstats-backend/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_sink_persist = "sink.persist"
	report_sink_divert  = "sink.divert"
	report_sink_failed  = "sink.failed"
)

// Batch is an ordered list of records of a single kind.
type Batch struct {
	Kind    records.Kind
	Records []records.Record
}

// Outcome counts the records of one batch that were written and the ones
// that were diverted to the pending queue.
type Outcome struct {
	Succeeded int
	Failed    int
}

// Sink writes batches to the store. Records that fail are appended to the
// pending queue and the batch carries on.
type Sink struct {
	store Store
	queue Queue
	tel   telemetry.API
}

func NewSink(store Store, queue Queue, tel telemetry.API) Sink {
	return Sink{
		store: store,
		queue: queue,
		tel:   telemetry.NewScopedAPI("persist", tel),
	}
}

// Persist attempts every record in the batch. Failing records never abort
// the batch, the only error returned before attempting anything is
// ErrNotConnected. An error wrapping ErrQueueWrite is returned after the
// batch completes if a failed record could not be queued.
func (s Sink) Persist(ctx context.Context, batch Batch) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Sink.Persist")
	defer span.End()

	span.SetAttributes(
		attribute.String("kind", string(batch.Kind)),
		attribute.Int("size", len(batch.Records)),
	)

	if !s.store.Connected() {
		span.SetStatus(codes.Error, ErrNotConnected.Error())
		return Outcome{}, ErrNotConnected
	}

	var outcome Outcome
	var unqueued []string
	for _, rec := range batch.Records {
		err := s.attempt(ctx, batch.Kind, rec)
		if err == nil {
			outcome.Succeeded++
			continue
		}

		outcome.Failed++
		s.tel.ReportWarning(report_sink_persist, rec.Name(), err)

		err = s.queue.Append(s.partitionOf(batch.Kind, rec))
		if err != nil {
			s.tel.ReportBroken(report_sink_divert, rec.Name(), err)
			span.RecordError(err)
			unqueued = append(unqueued, rec.Name())
		}
	}

	kindAttr := metric.WithAttributes(attribute.String("kind", string(batch.Kind)))
	persistedCounter.Add(ctx, int64(outcome.Succeeded), kindAttr)
	divertedCounter.Add(ctx, int64(outcome.Failed-len(unqueued)), kindAttr)

	if outcome.Failed > 0 {
		s.tel.ReportCount(report_sink_failed, int64(outcome.Failed))
	}

	if len(unqueued) > 0 {
		err := fmt.Errorf("%w: %s", ErrQueueWrite, strings.Join(unqueued, ", "))
		span.SetStatus(codes.Error, err.Error())
		return outcome, err
	}
	return outcome, nil
}

func (s Sink) attempt(ctx context.Context, kind records.Kind, rec records.Record) error {
	if rec.Kind != kind {
		return fmt.Errorf("record of kind '%s' in a batch of '%s'", rec.Kind, kind)
	}
	err := rec.Validate()
	if err != nil {
		return err
	}
	return s.store.Insert(ctx, rec)
}

// partitionOf files a record without a usable kind under the batch's kind.
func (s Sink) partitionOf(batchKind records.Kind, rec records.Record) records.Record {
	if !rec.Kind.Valid() {
		rec.Kind = batchKind
	}
	return rec
}
