package model

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// RawKeyedAccount is one keyed-account notification as received from the
// node, before the address and payload have been validated. Pubkey is kept
// as a string so that per-account subscriptions can stamp their own identity
// into payloads that arrive without one.
type RawKeyedAccount struct {
	Pubkey  string
	Slot    uint64
	Account *rpc.Account
}

// RawSlotUpdate is one slot lifecycle notification. Parent is only
// meaningful for created-bank updates.
type RawSlotUpdate struct {
	Type   ws.SlotsUpdatesType
	Slot   uint64
	Parent uint64
}

// NormalizeAccount converts a raw keyed-account notification into an
// AccountUpdate. It fails if the address is not a valid public key or the
// account payload cannot be decoded under the negotiated encoding.
func NormalizeAccount(raw RawKeyedAccount) (AccountUpdate, error) {
	pubkey, err := solana.PublicKeyFromBase58(raw.Pubkey)
	if err != nil {
		return AccountUpdate{}, fmt.Errorf("parse account pubkey %q: %w", raw.Pubkey, err)
	}
	if raw.Account == nil {
		return AccountUpdate{}, fmt.Errorf("account %s: missing account payload", raw.Pubkey)
	}
	if raw.Account.Data == nil {
		return AccountUpdate{}, fmt.Errorf("account %s: missing account data", raw.Pubkey)
	}
	data := raw.Account.Data.GetBinary()
	if data == nil {
		return AccountUpdate{}, fmt.Errorf("account %s: could not decode account data", raw.Pubkey)
	}

	state := AccountState{
		Lamports:   raw.Account.Lamports,
		Owner:      raw.Account.Owner,
		Data:       data,
		Executable: raw.Account.Executable,
	}
	if raw.Account.RentEpoch != nil && raw.Account.RentEpoch.IsUint64() {
		state.RentEpoch = raw.Account.RentEpoch.Uint64()
	}

	return AccountUpdate{
		Pubkey:  pubkey,
		Slot:    raw.Slot,
		Account: state,
	}, nil
}

// NormalizeSlot converts a raw slot notification into a SlotUpdate. Only
// created-bank, optimistic-confirmation and root notifications map to an
// update; any other subtype is consumed without producing one.
func NormalizeSlot(raw RawSlotUpdate) (SlotUpdate, bool) {
	switch raw.Type {
	case ws.SlotsUpdatesCreatedBank:
		parent := raw.Parent
		return SlotUpdate{Slot: raw.Slot, Parent: &parent, Status: SlotProcessed}, true
	case ws.SlotsUpdatesOptimisticConfirmation:
		return SlotUpdate{Slot: raw.Slot, Status: SlotConfirmed}, true
	case ws.SlotsUpdatesRoot:
		return SlotUpdate{Slot: raw.Slot, Status: SlotRooted}, true
	default:
		return SlotUpdate{}, false
	}
}
