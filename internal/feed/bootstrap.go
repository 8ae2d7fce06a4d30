package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainfeed/internal/model"
)

var (
	// ErrBootstrapTimeout means no new-block slot event arrived before the
	// deadline, which is the designed way for a caller to detect a feed
	// that never came up.
	ErrBootstrapTimeout = errors.New("no new-block event from websocket connection")
	// ErrFeedClosed means the event channel was drained and closed before
	// a new-block slot event arrived.
	ErrFeedClosed = errors.New("event channel closed")
)

// AwaitFirstNewBlock blocks until the first created-bank (processed) slot
// event arrives on events and returns its slot number. Any other event is
// consumed and discarded without extending the deadline. Callers use this
// to confirm the feed is live before trusting the state it populates.
func AwaitFirstNewBlock(ctx context.Context, events <-chan model.Event, timeout time.Duration) (uint64, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-deadline.C:
			return 0, fmt.Errorf("%w in %s", ErrBootstrapTimeout, timeout)
		case event, ok := <-events:
			if !ok {
				return 0, ErrFeedClosed
			}
			if event.Slot != nil && event.Slot.Status == model.SlotProcessed {
				return event.Slot.Slot, nil
			}
		}
	}
}
