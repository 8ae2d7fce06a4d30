package storage

import "chainfeed/internal/model"

// Storage defines a sink for feed event records.
type Storage interface {
	PutEventBatch(events []model.EventRecord) error
}
