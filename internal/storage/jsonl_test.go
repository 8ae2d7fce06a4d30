package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chainfeed/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "journal.jsonl")
	sink := NewJsonlStorage(path)

	now := time.Now()
	first := []model.EventRecord{
		model.NewEventRecord(slotEvent(1), now),
		model.NewEventRecord(slotEvent(2), now),
	}
	if err := sink.PutEventBatch(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.PutEventBatch([]model.EventRecord{model.NewEventRecord(slotEvent(3), now)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var slots []uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("parse line: %v", err)
		}
		slots = append(slots, record.Slot)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan journal: %v", err)
	}

	if len(slots) != 3 || slots[0] != 1 || slots[1] != 2 || slots[2] != 3 {
		t.Fatalf("journal contents mismatch: %v", slots)
	}
}

func TestJsonlStorageEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	if err := NewJsonlStorage(path).PutEventBatch(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create the file")
	}
}
