package fstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

func TestMergeOverlaysMatchedRecords(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.WriteAll([]store.Record{
		{store.KeyField: "tok-a", "email": "a@example.com", "quota": 100},
		{store.KeyField: "tok-b", "email": "b@example.com"},
	})
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// The active view carries a subset of fields plus an update
	active := []store.Record{
		{store.KeyField: "tok-a", "quota": 42},
	}
	if err := s.Merge(active, nil); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	got, _ := s.ReadAll()
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	// the merged field is updated, unmentioned fields survive
	if got[0]["quota"] != float64(42) && got[0]["quota"] != 42 {
		t.Errorf("Expected quota 42, got %v", got[0]["quota"])
	}
	if got[0]["email"] != "a@example.com" {
		t.Errorf("Merge dropped an unmentioned field: %v", got[0])
	}
	// records the active view does not mention survive untouched
	if got[1]["email"] != "b@example.com" {
		t.Errorf("Merge disturbed an unmentioned record: %v", got[1])
	}
}

func TestMergeSinglePrecedesActive(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.WriteAll([]store.Record{
		{store.KeyField: "tok-a", "n": 0},
		{store.KeyField: "tok-b", "n": 0},
	})
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// With single non-nil, the active sequence is ignored entirely
	active := []store.Record{{store.KeyField: "tok-a", "n": 1}}
	single := store.Record{store.KeyField: "tok-b", "n": 2}
	if err := s.Merge(active, single); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	got, _ := s.ReadAll()
	if got[0]["n"] != float64(0) && got[0]["n"] != 0 {
		t.Errorf("Active record was merged despite single being set: %v", got[0])
	}
	if got[1]["n"] != float64(2) && got[1]["n"] != 2 {
		t.Errorf("Single record was not merged: %v", got[1])
	}
}

func TestMergeNeverInsertsUnmatchedRecords(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	active := []store.Record{
		{store.KeyField: "tok-a", "seen": true},
		{store.KeyField: "tok-unknown", "seen": true},
	}
	if err := s.Merge(active, nil); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	got, _ := s.ReadAll()
	if len(got) != 1 {
		t.Fatalf("Merge inserted an unmatched record: %v", got)
	}
	if got[0].Key() != "tok-a" || got[0]["seen"] != true {
		t.Errorf("Matched record not overlaid: %v", got[0])
	}
}

func TestMergeStripsSessionField(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	single := store.Record{
		store.KeyField:     "tok-a",
		store.SessionField: "live-session",
		"email":            "a@example.com",
	}
	if err := s.Merge(nil, single); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	doc, _, err := decodeDocument(data)
	if err != nil {
		t.Fatalf("Failed to decode store file: %v", err)
	}
	if _, ok := doc.Records[0][store.SessionField]; ok {
		t.Error("Merge persisted the session field")
	}
	if doc.Records[0]["email"] != "a@example.com" {
		t.Errorf("Merge dropped a regular field: %v", doc.Records[0])
	}
}

func TestMergeInitializesEmptyStoreFromMemory(t *testing.T) {
	s, _ := newTestStore(t)

	active := []store.Record{
		{store.KeyField: "tok-a"},
		{store.KeyField: "tok-b"},
	}
	if err := s.Merge(active, nil); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	got, _ := s.ReadAll()
	if len(got) != 2 {
		t.Fatalf("Expected the active set to initialize the store, got %v", got)
	}
}

func TestMergeAbortsWhenUnhealthyAndEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("Failed to write broken file: %v", err)
	}

	s := NewFileStore(Options{Path: path})
	defer s.Close()

	// Reading the broken file yields an empty set and marks the store
	// unhealthy; a merge now must not wipe the file.
	if err := s.Merge([]store.Record{{store.KeyField: "tok-a"}}, nil); err != nil {
		t.Fatalf("Merge should be a silent no-op, got: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "{broken" {
		t.Error("Merge replaced an unreadable store file")
	}
}

func TestMergeRecordsIgnoresKeylessRecords(t *testing.T) {
	full := []store.Record{{store.KeyField: "tok-a", "n": 1}}
	active := []store.Record{
		{"email": "keyless@example.com"},
		{store.KeyField: "tok-a", "n": 2},
	}

	result := mergeRecords(full, active, nil)
	if len(result) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result))
	}
	if result[0]["n"] != 2 {
		t.Errorf("Keyed record not overlaid: %v", result[0])
	}
}

func TestMergeRecordsDoesNotMutateInputs(t *testing.T) {
	full := []store.Record{{store.KeyField: "tok-a", "n": 1}}
	active := []store.Record{{store.KeyField: "tok-a", "n": 2}}

	_ = mergeRecords(full, active, nil)
	if full[0]["n"] != 1 {
		t.Error("mergeRecords mutated the full input")
	}
}
