// Package persist writes observation batches into the store without losing
// the ones that fail.
//
// A record the store rejects is diverted to the pending queue partition of
// its kind. The Reconciler replays those partitions later, leaving only the
// records that fail again.
package persist

import (
	"context"
	"errors"
	"streamstats-backend/internal/records"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("internal/persist")
var meter = otel.Meter("internal/persist")

var persistedCounter, _ = meter.Int64Counter(
	"records.persisted",
	metric.WithDescription("Records written to the store on their first attempt."),
)
var divertedCounter, _ = meter.Int64Counter(
	"records.diverted",
	metric.WithDescription("Records appended to the pending queue after a failed write."),
)
var recoveredCounter, _ = meter.Int64Counter(
	"records.recovered",
	metric.WithDescription("Pending records written to the store by reconciliation."),
)
var stillFailingCounter, _ = meter.Int64Counter(
	"records.still_failing",
	metric.WithDescription("Pending records that failed again during reconciliation."),
)

var (
	// ErrNotConnected is returned when the store has no active session, no
	// record is attempted and no queue is touched.
	ErrNotConnected = errors.New("store is not connected")
	// ErrQueueWrite is returned when a failed record could not be appended
	// to the pending queue.
	ErrQueueWrite = errors.New("failed to write to the pending queue")
)

// Store persists a single record, it is implemented by statsstore.Session.
type Store interface {
	Connected() bool
	Insert(ctx context.Context, rec records.Record) error
}

// Queue is the durable pending queue, it is implemented by pendingqueue.Queue.
type Queue interface {
	Append(rec records.Record) error
	Ensure(kind records.Kind) error
	Load(kind records.Kind) ([]records.Record, error)
	Replace(kind records.Kind, recs []records.Record) error
}
