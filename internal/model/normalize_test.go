package model

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

const testPubkey = "SysvarC1ock11111111111111111111111111111111"

func binaryData(t *testing.T, encoded string) *rpc.DataBytesOrJSON {
	t.Helper()
	var data rpc.DataBytesOrJSON
	if err := json.Unmarshal([]byte(`["`+encoded+`","base64"]`), &data); err != nil {
		t.Fatalf("build account data: %v", err)
	}
	return &data
}

func TestNormalizeAccountRoundTripsPubkey(t *testing.T) {
	raw := RawKeyedAccount{
		Pubkey: testPubkey,
		Slot:   42,
		Account: &rpc.Account{
			Lamports:  1000,
			Data:      binaryData(t, "aGVsbG8="),
			RentEpoch: new(big.Int).SetUint64(361),
		},
	}

	update, err := NormalizeAccount(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := update.Pubkey.String(); got != testPubkey {
		t.Fatalf("pubkey mismatch: %s != %s", got, testPubkey)
	}
	if update.Slot != 42 {
		t.Fatalf("slot mismatch: %d", update.Slot)
	}
	if string(update.Account.Data) != "hello" {
		t.Fatalf("data mismatch: %q", update.Account.Data)
	}
	if update.Account.Lamports != 1000 {
		t.Fatalf("lamports mismatch: %d", update.Account.Lamports)
	}
	if update.Account.RentEpoch != 361 {
		t.Fatalf("rent epoch mismatch: %d", update.Account.RentEpoch)
	}
}

func TestNormalizeAccountMalformedPubkey(t *testing.T) {
	raw := RawKeyedAccount{
		Pubkey:  "not-a-pubkey-0OIl",
		Slot:    1,
		Account: &rpc.Account{Data: binaryData(t, "")},
	}
	if _, err := NormalizeAccount(raw); err == nil {
		t.Fatalf("expected error for malformed pubkey")
	}
}

func TestNormalizeAccountMissingPayload(t *testing.T) {
	if _, err := NormalizeAccount(RawKeyedAccount{Pubkey: testPubkey}); err == nil {
		t.Fatalf("expected error for missing account payload")
	}
	if _, err := NormalizeAccount(RawKeyedAccount{Pubkey: testPubkey, Account: &rpc.Account{}}); err == nil {
		t.Fatalf("expected error for missing account data")
	}
}

func TestNormalizeAccountUndecodableData(t *testing.T) {
	var data rpc.DataBytesOrJSON
	if err := json.Unmarshal([]byte(`{"parsed":{"type":"clock"}}`), &data); err != nil {
		t.Fatalf("build json data: %v", err)
	}
	raw := RawKeyedAccount{
		Pubkey:  testPubkey,
		Slot:    1,
		Account: &rpc.Account{Data: &data},
	}
	if _, err := NormalizeAccount(raw); err == nil {
		t.Fatalf("expected error for undecodable account data")
	}
}

func TestNormalizeSlotCreatedBank(t *testing.T) {
	update, ok := NormalizeSlot(RawSlotUpdate{Type: ws.SlotsUpdatesCreatedBank, Slot: 100, Parent: 99})
	if !ok {
		t.Fatalf("expected an update")
	}
	if update.Status != SlotProcessed {
		t.Fatalf("status mismatch: %s", update.Status)
	}
	if update.Parent == nil || *update.Parent != 99 {
		t.Fatalf("parent mismatch: %v", update.Parent)
	}
}

func TestNormalizeSlotConfirmationAndRoot(t *testing.T) {
	update, ok := NormalizeSlot(RawSlotUpdate{Type: ws.SlotsUpdatesOptimisticConfirmation, Slot: 100})
	if !ok || update.Status != SlotConfirmed || update.Parent != nil {
		t.Fatalf("unexpected confirmation update: %+v ok=%v", update, ok)
	}

	update, ok = NormalizeSlot(RawSlotUpdate{Type: ws.SlotsUpdatesRoot, Slot: 95})
	if !ok || update.Status != SlotRooted || update.Parent != nil {
		t.Fatalf("unexpected root update: %+v ok=%v", update, ok)
	}
}

func TestNormalizeSlotUnrecognizedSubtype(t *testing.T) {
	for _, subtype := range []ws.SlotsUpdatesType{
		ws.SlotsUpdatesFirstShredReceived,
		ws.SlotsUpdatesCompleted,
		ws.SlotsUpdatesDead,
		ws.SlotsUpdatesType("somethingNew"),
	} {
		if _, ok := NormalizeSlot(RawSlotUpdate{Type: subtype, Slot: 1}); ok {
			t.Fatalf("subtype %s should not produce an update", subtype)
		}
	}
}
