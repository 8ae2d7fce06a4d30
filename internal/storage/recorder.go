package storage

import (
	"context"
	"fmt"
	"time"

	"chainfeed/internal/model"
	"chainfeed/internal/storage/postgres"
)

// Recorder buffers event records and flushes them in batches to the
// configured sinks. Both sinks are optional. Not safe for concurrent use;
// it belongs to the single consumer loop.
type Recorder struct {
	journal   Storage
	db        *postgres.Store
	batchSize int
	buf       []model.EventRecord
}

func NewRecorder(journal Storage, db *postgres.Store, batchSize int) *Recorder {
	if batchSize <= 0 {
		batchSize = 256
	}
	return &Recorder{
		journal:   journal,
		db:        db,
		batchSize: batchSize,
		buf:       make([]model.EventRecord, 0, batchSize),
	}
}

// Enabled reports whether any sink is configured.
func (r *Recorder) Enabled() bool {
	return r.journal != nil || r.db != nil
}

// Record buffers one event, flushing when the batch is full.
func (r *Recorder) Record(ctx context.Context, event model.Event, receivedAt time.Time) error {
	if !r.Enabled() {
		return nil
	}
	r.buf = append(r.buf, model.NewEventRecord(event, receivedAt))
	if len(r.buf) >= r.batchSize {
		return r.Flush(ctx)
	}
	return nil
}

// Flush writes all buffered records to the sinks.
func (r *Recorder) Flush(ctx context.Context) error {
	if len(r.buf) == 0 {
		return nil
	}
	if r.journal != nil {
		if err := r.journal.PutEventBatch(r.buf); err != nil {
			return fmt.Errorf("journal events: %w", err)
		}
	}
	if r.db != nil {
		if err := r.db.PutEventBatch(ctx, r.buf); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
	}
	r.buf = r.buf[:0]
	return nil
}
