package fstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

// expireCache forces the next ReadAll to hit the disk.
func (s *fileStore) expireCache() {
	s.mu.Lock()
	s.cachedAt = time.Time{}
	s.mu.Unlock()
}

// newTestStore creates a store backed by a file in a fresh temp dir.
func newTestStore(t *testing.T) (store.IStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	s := NewFileStore(Options{Path: path})
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestWriteReadRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	records := []store.Record{
		{store.KeyField: "tok-a", "email": "a@example.com"},
		{store.KeyField: "tok-b", "email": "b@example.com", "disabled": true},
	}

	if err := s.WriteAll(records); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	got, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].Key() != "tok-a" || got[1].Key() != "tok-b" {
		t.Errorf("Record order not preserved: %v, %v", got[0].Key(), got[1].Key())
	}
	if got[1]["disabled"] != true {
		t.Errorf("Expected disabled=true, got %v", got[1]["disabled"])
	}
}

func TestWriteAllReplacesPreviousContent(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.WriteAll([]store.Record{{store.KeyField: "old"}}); err != nil {
		t.Fatalf("First WriteAll failed: %v", err)
	}
	if err := s.WriteAll([]store.Record{{store.KeyField: "new"}}); err != nil {
		t.Fatalf("Second WriteAll failed: %v", err)
	}

	got, _ := s.ReadAll()
	if len(got) != 1 || got[0].Key() != "new" {
		t.Errorf("Expected single record 'new', got %v", got)
	}
}

func TestWriteAllDeduplicatesByKey(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.WriteAll([]store.Record{
		{store.KeyField: "tok-a", "email": "first@example.com"},
		{store.KeyField: "tok-b"},
		{store.KeyField: "tok-a", "email": "last@example.com"},
	})
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	got, _ := s.ReadAll()
	if len(got) != 2 {
		t.Fatalf("Expected 2 records after dedupe, got %d", len(got))
	}
	// last occurrence wins, at the first occurrence's position
	if got[0].Key() != "tok-a" || got[0]["email"] != "last@example.com" {
		t.Errorf("Dedupe kept wrong content: %v", got[0])
	}
}

func TestSessionFieldNeverPersisted(t *testing.T) {
	s, path := newTestStore(t)

	err := s.WriteAll([]store.Record{
		{store.KeyField: "tok-a", store.SessionField: map[string]any{"id": "s1"}},
	})
	if err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	got, _ := s.ReadAll()
	if _, ok := got[0][store.SessionField]; ok {
		t.Error("Session field survived in read result")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read store file: %v", err)
	}
	doc, _, err := decodeDocument(data)
	if err != nil {
		t.Fatalf("Failed to decode store file: %v", err)
	}
	if _, ok := doc.Records[0][store.SessionField]; ok {
		t.Error("Session field was written to disk")
	}
}

func TestReadAllReturnsDeepCopies(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a", "n": 1}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	first, _ := s.ReadAll()
	first[0]["n"] = 99

	second, _ := s.ReadAll()
	if second[0]["n"] == 99 {
		t.Error("Mutating a ReadAll result leaked into the cache")
	}
}

func TestStaleFallbackOnCorruptFile(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// Corrupt the file behind the store's back and expire the cache
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Failed to corrupt file: %v", err)
	}
	s.(*fileStore).expireCache()

	got, err := s.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll should not fail on corrupt file: %v", err)
	}
	if len(got) != 1 || got[0].Key() != "tok-a" {
		t.Errorf("Expected stale snapshot, got %v", got)
	}
	if s.(*fileStore).healthy.Load() {
		t.Error("Store should be unhealthy after a failed read")
	}
}

func TestFormatErrorRefreshesCacheWindow(t *testing.T) {
	s, path := newTestStore(t)
	fs := s.(*fileStore)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// Valid JSON, but neither document shape
	if err := os.WriteFile(path, []byte(`{"foo": 1}`), 0o600); err != nil {
		t.Fatalf("Failed to rewrite file: %v", err)
	}
	fs.expireCache()

	if _, err := s.ReadAll(); err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	fs.mu.RLock()
	fresh := time.Since(fs.cachedAt) < fs.cacheTTL
	fs.mu.RUnlock()
	if !fresh {
		t.Error("Format error should refresh the cache window")
	}
}

func TestWriteRecoversHealth(t *testing.T) {
	s, path := newTestStore(t)
	fs := s.(*fileStore)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("Failed to corrupt file: %v", err)
	}
	fs.expireCache()
	_, _ = s.ReadAll()

	if fs.healthy.Load() {
		t.Fatal("Store should be unhealthy after a failed read")
	}

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-b"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if !fs.healthy.Load() {
		t.Error("A successful write should restore health")
	}
}

func TestConcurrentMergesLoseNoUpdates(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}}); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	// Each goroutine merges a disjoint field onto the same record. With
	// serialized writes every field must survive.
	const writers = 20

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			single := store.Record{
				store.KeyField:             "tok-a",
				fmt.Sprintf("field_%d", i): i,
			}
			if err := s.Merge(nil, single); err != nil {
				t.Errorf("Merge %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.ReadAll()
	if len(got) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(got))
	}
	for i := 0; i < writers; i++ {
		field := fmt.Sprintf("field_%d", i)
		if _, ok := got[0][field]; !ok {
			t.Errorf("Update %s was lost", field)
		}
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := s.WriteAll([]store.Record{{store.KeyField: "tok-a"}})
	if err == nil {
		t.Fatal("Expected error writing to a closed store")
	}
	var serr *store.Error
	if !errors.As(err, &serr) || serr.Code != store.RetCStoreUnavailable {
		t.Errorf("Expected RetCStoreUnavailable, got %v", err)
	}
}

func TestNilAndEmptyWrites(t *testing.T) {
	s, path := newTestStore(t)

	if err := s.WriteAll(nil); err != nil {
		t.Fatalf("WriteAll(nil) failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read store file: %v", err)
	}
	doc, _, err := decodeDocument(data)
	if err != nil {
		t.Fatalf("Failed to decode store file: %v", err)
	}
	if doc.Records == nil || len(doc.Records) != 0 {
		t.Errorf("Expected empty records array on disk, got %v", doc.Records)
	}
}
