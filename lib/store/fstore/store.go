package fstore

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/ZhaoShanGeng/antigravity2api/lib/logging"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store/fstore/internal"
)

// --------------------------------------------------------------------------
// Logging & Metrics
// --------------------------------------------------------------------------

var logger = logging.GetLogger("fstore")

var (
	metricWrites        = metrics.NewCounter("a2a_store_writes_total")
	metricWriteFailures = metrics.NewCounter("a2a_store_write_failures_total")
	metricMerges        = metrics.NewCounter("a2a_store_merges_total")
	metricMergeNoops    = metrics.NewCounter("a2a_store_merge_noops_total")
	metricCacheHits     = metrics.NewCounter("a2a_store_cache_hits_total")
	metricCacheMisses   = metrics.NewCounter("a2a_store_cache_misses_total")
	metricReadFallbacks = metrics.NewCounter("a2a_store_read_fallbacks_total")
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// DefaultCacheTTL is the freshness window for the read cache.
const DefaultCacheTTL = 5 * time.Second

// Options configures a file store.
type Options struct {
	// Path is the location of the store file. Parent directories are
	// created on first use.
	Path string

	// CacheTTL is the freshness window for the read cache. Zero or
	// negative values select the default.
	CacheTTL time.Duration
}

// fileStore implements store.IStore on top of a single JSON file. All
// mutations funnel through a serialized write pipeline; reads are served
// from a time-bounded cache that falls back to its last good snapshot when
// the file is unreadable.
type fileStore struct {
	path     string
	cacheTTL time.Duration

	// pipeline serializes all disk mutations
	pipeline *internal.Pipeline

	// mu guards the read cache
	mu       sync.RWMutex
	cached   []store.Record
	cachedAt time.Time
	hasCache bool

	// bootMu guards bootstrap state
	bootMu        sync.Mutex
	salt          string
	saltPersisted bool

	// healthy reports whether the last disk access succeeded
	healthy atomic.Bool
}

// NewFileStore creates a new file-backed store.
//
// The store file is created or migrated lazily on first access, so this
// function never touches the disk itself.
func NewFileStore(opts Options) store.IStore {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	s := &fileStore{
		path:     opts.Path,
		cacheTTL: opts.CacheTTL,
		pipeline: internal.NewPipeline(),
	}
	s.healthy.Store(true)
	return s
}

// --------------------------------------------------------------------------
// Interface Implementation
// --------------------------------------------------------------------------

// GetSalt returns the store's salt, bootstrapping the file if needed.
func (s *fileStore) GetSalt() (string, error) {
	return s.ensureStore(), nil
}

// ReadAll returns the current record sequence. The result is always a
// copy, so callers may add or change fields without affecting the cache.
//
// Failures never propagate to the caller: an unreadable or malformed file
// yields the last good snapshot, or an empty sequence if none exists yet.
func (s *fileStore) ReadAll() ([]store.Record, error) {
	s.mu.RLock()
	if s.hasCache && time.Since(s.cachedAt) < s.cacheTTL {
		records := cloneRecords(s.cached)
		s.mu.RUnlock()
		metricCacheHits.Inc()
		return records, nil
	}
	s.mu.RUnlock()

	metricCacheMisses.Inc()
	return s.readFromDisk(), nil
}

// WriteAll atomically replaces the full record sequence. Records sharing a
// key are collapsed into one, keeping the last occurrence's content at the
// first occurrence's position. The session field is never persisted.
func (s *fileStore) WriteAll(records []store.Record) error {
	normalized := normalizeRecords(records)
	err := <-s.pipeline.Submit(func() error {
		return s.persist(normalized)
	})
	return wrapWriteError(err)
}

// Merge reconciles the caller's view of active records with the full
// on-disk sequence and persists the result. If single is non-nil, only that
// record is merged and active is ignored.
func (s *fileStore) Merge(active []store.Record, single store.Record) error {
	err := <-s.pipeline.Submit(func() error {
		return s.merge(active, single)
	})
	return wrapWriteError(err)
}

// Close shuts down the write pipeline after draining queued writes.
func (s *fileStore) Close() error {
	s.pipeline.Close()
	return nil
}

// --------------------------------------------------------------------------
// Read Path
// --------------------------------------------------------------------------

// readFromDisk loads the store file and refreshes the cache. On any
// failure the last good snapshot is served instead; a shape mismatch in
// otherwise valid JSON additionally refreshes the cache timestamp, since
// the file itself was read successfully.
func (s *fileStore) readFromDisk() []store.Record {
	salt := s.ensureStore()

	data, err := os.ReadFile(s.path)
	if err != nil {
		logger.Errorf("failed to read store file: %v", err)
		return s.fallback(false)
	}

	doc, _, err := decodeDocument(data)
	if err != nil {
		logger.Errorf("failed to parse store file: %v", err)
		// shape mismatch vs. syntax error: only the former counts as a read
		return s.fallback(errors.Is(err, errInvalidFormat))
	}

	if doc.Salt != "" && doc.Salt != salt {
		logger.Warnf("store file salt changed on disk; keeping process salt")
	}

	s.mu.Lock()
	s.cached = cloneRecords(doc.Records)
	s.cachedAt = time.Now()
	s.hasCache = true
	records := cloneRecords(s.cached)
	s.mu.Unlock()

	s.healthy.Store(true)
	return records
}

// fallback serves the last good snapshot after a failed read and marks the
// store unhealthy. refresh extends the cache freshness window, so repeated
// format errors don't hammer the disk.
func (s *fileStore) fallback(refresh bool) []store.Record {
	s.healthy.Store(false)
	metricReadFallbacks.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()

	if refresh && s.hasCache {
		s.cachedAt = time.Now()
	}
	if s.hasCache {
		return cloneRecords(s.cached)
	}
	return []store.Record{}
}

// --------------------------------------------------------------------------
// Write Path
// --------------------------------------------------------------------------

// persist writes the record sequence to disk and refreshes the cache.
//
// Thread-safety: This method runs exclusively on the write pipeline.
func (s *fileStore) persist(records []store.Record) error {
	salt := s.ensureStore()

	if err := s.writeDocument(storeDocument{Salt: salt, Records: records}); err != nil {
		s.healthy.Store(false)
		metricWriteFailures.Inc()
		return err
	}

	s.mu.Lock()
	s.cached = cloneRecords(records)
	s.cachedAt = time.Now()
	s.hasCache = true
	s.mu.Unlock()

	// The document just written carries the salt, so a salt that was only
	// process-local after a degraded bootstrap is now durable.
	s.bootMu.Lock()
	if !s.saltPersisted {
		logger.Infof("process-local salt persisted to store file")
		s.saltPersisted = true
	}
	s.bootMu.Unlock()

	s.healthy.Store(true)
	metricWrites.Inc()
	return nil
}

// wrapWriteError converts pipeline and disk errors into typed store errors.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, internal.ErrPipelineClosed) {
		return store.NewError(store.RetCStoreUnavailable, "store is closed")
	}
	return store.WrapError(store.RetCInternalError, "write failed", err)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// normalizeRecords copies and deduplicates a record sequence by key.
// The last occurrence of a key wins, at the position of the first. The
// session field is stripped from every record.
func normalizeRecords(records []store.Record) []store.Record {
	result := make([]store.Record, 0, len(records))
	position := make(map[string]int, len(records))

	for _, r := range records {
		if r == nil {
			continue
		}
		clean := r.Clone().StripSession()
		k := clean.Key()
		if k == "" {
			result = append(result, clean)
			continue
		}
		if i, seen := position[k]; seen {
			result[i] = clean
			continue
		}
		position[k] = len(result)
		result = append(result, clean)
	}

	return result
}

// cloneRecords copies a record sequence.
func cloneRecords(records []store.Record) []store.Record {
	result := make([]store.Record, len(records))
	for i, r := range records {
		result[i] = r.Clone()
	}
	return result
}
