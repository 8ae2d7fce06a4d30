package model

import (
	"encoding/base64"
	"time"
)

// Event record kinds.
const (
	RecordKindAccount = "account"
	RecordKindSlot    = "slot"
)

// EventRecord is the flat, serializable form of an Event used by the
// journal and database sinks.
type EventRecord struct {
	Kind       string  `json:"kind"`
	Slot       uint64  `json:"slot"`
	Pubkey     string  `json:"pubkey,omitempty"`
	Owner      string  `json:"owner,omitempty"`
	Lamports   uint64  `json:"lamports,omitempty"`
	Executable bool    `json:"executable,omitempty"`
	RentEpoch  uint64  `json:"rent_epoch,omitempty"`
	Data       string  `json:"data,omitempty"`
	Parent     *uint64 `json:"parent,omitempty"`
	Status     string  `json:"status,omitempty"`
	ReceivedAt string  `json:"received_at"`
}

// NewEventRecord flattens an Event for persistence. Account payloads are
// base64 encoded, matching the wire encoding.
func NewEventRecord(event Event, receivedAt time.Time) EventRecord {
	record := EventRecord{
		ReceivedAt: receivedAt.UTC().Format(time.RFC3339Nano),
	}
	switch {
	case event.Account != nil:
		record.Kind = RecordKindAccount
		record.Slot = event.Account.Slot
		record.Pubkey = event.Account.Pubkey.String()
		record.Owner = event.Account.Account.Owner.String()
		record.Lamports = event.Account.Account.Lamports
		record.Executable = event.Account.Account.Executable
		record.RentEpoch = event.Account.Account.RentEpoch
		record.Data = base64.StdEncoding.EncodeToString(event.Account.Account.Data)
	case event.Slot != nil:
		record.Kind = RecordKindSlot
		record.Slot = event.Slot.Slot
		record.Parent = event.Slot.Parent
		record.Status = event.Slot.Status.String()
	}
	return record
}
