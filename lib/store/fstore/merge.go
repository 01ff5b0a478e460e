package fstore

import (
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

// --------------------------------------------------------------------------
// Merge Engine
// --------------------------------------------------------------------------

// merge reconciles the caller's partial view of active records with the full
// on-disk sequence and persists the result. Records the active view does not
// mention (e.g. disabled entries) survive untouched.
//
// Thread-safety: This method runs exclusively on the write pipeline.
func (s *fileStore) merge(active []store.Record, single store.Record) error {
	full, _ := s.ReadAll()

	// An unreadable file must not be silently replaced by an empty set
	if !s.healthy.Load() && len(full) == 0 {
		logger.Warnf("merge skipped: store is unreadable and no records are available")
		metricMergeNoops.Inc()
		return nil
	}

	var result []store.Record
	if len(full) == 0 && len(active) > 0 {
		// Store initialization from memory
		result = normalizeRecords(active)
	} else {
		result = mergeRecords(full, active, single)
	}

	if err := s.persist(result); err != nil {
		return err
	}
	metricMerges.Inc()
	return nil
}

// mergeRecords overlays the active view onto the full on-disk sequence and
// returns the sequence to persist. For each active record (or for single
// alone, when non-nil) the on-disk record with the same key is overlaid
// field by field, session field excluded, so on-disk fields the active
// record does not carry survive. Active records without an on-disk match
// are NOT inserted; only a full replace introduces new keys.
func mergeRecords(full, active []store.Record, single store.Record) []store.Record {
	result := make([]store.Record, len(full))
	for i, r := range full {
		result[i] = r.Clone()
	}

	// Index the result by key for overlay lookup
	index := make(map[string]store.Record, len(result))
	for _, r := range result {
		if k := r.Key(); k != "" {
			index[k] = r
		}
	}

	targets := active
	if single != nil {
		targets = []store.Record{single}
	}

	for _, t := range targets {
		k := t.Key()
		if k == "" {
			continue
		}
		onDisk, ok := index[k]
		if !ok {
			// only WriteAll introduces new keys
			continue
		}
		for field, value := range t {
			if field == store.SessionField {
				continue
			}
			onDisk[field] = value
		}
	}

	return result
}
