package model

import (
	"github.com/gagliardetto/solana-go"
)

// SlotStatus is the confidence level of a slot notification.
type SlotStatus int

const (
	// SlotProcessed means a bank was created for the slot (new block).
	SlotProcessed SlotStatus = iota
	// SlotConfirmed means the slot reached optimistic confirmation.
	SlotConfirmed
	// SlotRooted means the slot was finalized by consensus.
	SlotRooted
)

func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotConfirmed:
		return "confirmed"
	case SlotRooted:
		return "rooted"
	default:
		return "unknown"
	}
}

// AccountState is one decoded account payload.
type AccountState struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// AccountUpdate is one observed state of one account at one slot.
type AccountUpdate struct {
	Pubkey  solana.PublicKey
	Slot    uint64
	Account AccountState
}

// SlotUpdate is a claim about one slot's position in the chain.
// Parent is only known for processed (created-bank) updates.
type SlotUpdate struct {
	Slot   uint64
	Parent *uint64
	Status SlotStatus
}

// Event is the tagged union crossing the feed boundary. Exactly one of
// Account or Slot is set.
type Event struct {
	Account *AccountUpdate
	Slot    *SlotUpdate
}

// AccountEvent wraps an account update as an Event.
func AccountEvent(update AccountUpdate) Event {
	return Event{Account: &update}
}

// SlotEvent wraps a slot update as an Event.
func SlotEvent(update SlotUpdate) Event {
	return Event{Slot: &update}
}
