/*
Package fstore provides a file-backed implementation of the store.IStore
interface. The full record sequence lives in a single JSON document that is
replaced atomically on every write, so the file on disk is always a complete,
parseable snapshot.

Key aspects:

  - Crash consistency: writes go to a synced temporary sibling file that is
    renamed onto the store path, so a crash at any point leaves either the
    old or the new content, never a mix.
  - Serialized writes: all mutations run one at a time on an internal
    pipeline, so concurrent writers cannot interleave or lose updates.
  - Stale-but-available reads: a short-lived cache serves reads; when the
    file is unreadable or malformed, the last good snapshot is served
    instead of an error.
  - Self-healing bootstrap: missing files are created, legacy bare-sequence
    files are migrated, and files without a salt get one injected.

Usage:

	s := fstore.NewFileStore(fstore.Options{Path: "/data/tokens.json"})
	defer s.Close()

	records, _ := s.ReadAll()
	err := s.Merge(records, nil)
*/
package fstore
