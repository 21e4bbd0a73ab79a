package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileWALAppendReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.wal")
	w, err := NewFileWAL(path)
	if err != nil {
		t.Fatal(err)
	}

	events := []OrderEvent{
		{Op: OpPlace, ID: "a", Side: 1, Price: "100.5", Volume: "3", Timestamp: 1},
		{Op: OpPlace, ID: "b", Side: -1, Price: "101", Volume: "2", Timestamp: 2},
		{Op: OpCancel, ID: "a", Timestamp: 3},
	}
	for _, ev := range events {
		if err := w.Append(ev); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got []OrderEvent
	if err := ReplayWAL(path, func(ev OrderEvent) error {
		got = append(got, ev)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(events) {
		t.Fatalf("replayed %d events, want %d", len(got), len(events))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], events[i])
		}
	}
}

func TestReplayWALMissingFile(t *testing.T) {
	err := ReplayWAL(filepath.Join(t.TempDir(), "nope.wal"), func(OrderEvent) error {
		t.Fatal("callback ran for a missing file")
		return nil
	})
	if err != nil {
		t.Fatalf("missing file should replay as empty, got %v", err)
	}
}

func TestReplayWALTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.wal")
	w, err := NewFileWAL(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(OrderEvent{Op: OpPlace, ID: "a", Price: "1", Volume: "1", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	w.Close()

	// Simulate a crash mid-write: garbage partial line at the tail.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(`{"op":"place","id":"b`)
	f.Close()

	n := 0
	if err := ReplayWAL(path, func(OrderEvent) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("replayed %d events, want 1 (torn tail dropped)", n)
	}
}
