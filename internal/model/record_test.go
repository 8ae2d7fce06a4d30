package model

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

func TestNewEventRecordAccount(t *testing.T) {
	pubkey := solana.MustPublicKeyFromBase58(testPubkey)
	event := AccountEvent(AccountUpdate{
		Pubkey: pubkey,
		Slot:   7,
		Account: AccountState{
			Lamports: 5,
			Owner:    solana.SystemProgramID,
			Data:     []byte("hello"),
		},
	})

	record := NewEventRecord(event, time.Unix(1700000000, 0))
	if record.Kind != RecordKindAccount {
		t.Fatalf("kind mismatch: %s", record.Kind)
	}
	if record.Pubkey != testPubkey {
		t.Fatalf("pubkey mismatch: %s", record.Pubkey)
	}
	if record.Slot != 7 || record.Lamports != 5 {
		t.Fatalf("fields mismatch: %+v", record)
	}
	if record.Data != "aGVsbG8=" {
		t.Fatalf("data should be base64: %s", record.Data)
	}
}

func TestNewEventRecordSlot(t *testing.T) {
	parent := uint64(9)
	record := NewEventRecord(SlotEvent(SlotUpdate{Slot: 10, Parent: &parent, Status: SlotProcessed}), time.Now())
	if record.Kind != RecordKindSlot {
		t.Fatalf("kind mismatch: %s", record.Kind)
	}
	if record.Status != "processed" {
		t.Fatalf("status mismatch: %s", record.Status)
	}
	if record.Parent == nil || *record.Parent != 9 {
		t.Fatalf("parent mismatch: %v", record.Parent)
	}
}
