// Package store defines the interface for the token record store that backs
// the antigravity2api gateway, along with the Record type and a unified error
// system.
//
// The package focuses on:
//   - A unified interface (IStore) for reading, replacing and merging the
//     persisted token record set
//   - The Record data model: an opaque field map whose only structured parts
//     are the key field (record identity) and the session field (in-memory
//     only, never persisted)
//   - Typed errors (Error with RetCode) so callers can react to specific
//     failure classes instead of generic errors
//
// Key Components:
//
//   - IStore Interface: The core abstraction for store access. Reads are
//     cache-backed and may lag the most recent write by a bounded freshness
//     window; writes and merges are totally ordered by the implementation,
//     so callers never observe interleaved or lost updates from concurrent
//     mutation within one process.
//
//   - Record: one token/account entry. The store never interprets fields
//     beyond the key and session fields, which keeps the on-disk document
//     forward-compatible with fields added by newer gateway versions.
//
//   - Error System: structured error reporting using typed error codes and
//     descriptive messages, with errors.Unwrap support for inspecting the
//     underlying cause.
//
// Implementations:
//
//	The file-backed implementation lives in the
//	"github.com/ZhaoShanGeng/antigravity2api/lib/store/fstore" package. It
//	persists the record set as a single JSON document with crash-consistent
//	atomic replacement and a serialized write pipeline.
package store
