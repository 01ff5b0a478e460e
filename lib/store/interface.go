package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Record Type
// --------------------------------------------------------------------------

// Field names with special meaning inside a Record.
const (
	// KeyField is the identity field of a record. Exactly one record exists
	// per distinct key value after any write or merge.
	KeyField = "refresh_token"

	// SessionField holds session-scoped state that only lives in memory.
	// It is stripped before a record is persisted.
	SessionField = "session"
)

// Record is one token/account entry. All fields are opaque to the store
// except KeyField (identity during merge) and SessionField (never persisted).
type Record map[string]any

// Key returns the value of the record's key field, or "" if the field is
// absent or not a string.
func (r Record) Key() string {
	if v, ok := r[KeyField].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// StripSession returns a copy of the record without the session field.
func (r Record) StripSession() Record {
	c := make(Record, len(r))
	for k, v := range r {
		if k == SessionField {
			continue
		}
		c[k] = v
	}
	return c
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for interacting with the token record store.
// All write operations return only an error (nil on success), while read
// operations return the requested data along with an error (nil on success).
//
// Reads may serve a cached view that is slightly older than the latest
// completed write; all mutation is serialized by the implementation.
type IStore interface {
	// GetSalt returns the store's salt. The salt is generated once for the
	// lifetime of the store file and is consumed by identifier derivation.
	GetSalt() (salt string, err error)

	// ReadAll returns the current record sequence. Failures degrade to a
	// stale cached value or an empty sequence, never to an error that the
	// caller must handle to stay alive.
	ReadAll() (records []Record, err error)

	// WriteAll replaces the entire record sequence. A nil sequence is
	// treated as empty. New keys may only be introduced through WriteAll.
	WriteAll(records []Record) (err error)

	// Merge reconciles a partial in-memory view into the full persisted set.
	// If single is non-nil only that record is reconciled, otherwise every
	// record of active is. Records are matched by key field; matched on-disk
	// records are overlaid field by field (session field excluded), records
	// the active view does not mention survive untouched, and unmatched
	// active records are NOT inserted.
	Merge(active []Record, single Record) (err error)

	// Close releases the store's resources. Operations submitted before
	// Close still complete.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
	Err  error   // Optional underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCStoreUnavailable:
		errorCode = "StoreUnavailable"
	case RetCInvalidOperation:
		errorCode = "InvalidOperation"
	default:
		errorCode = "Unknown"
	}

	if e.Err != nil {
		return fmt.Sprintf("TokenStoreError (code %s): %s: %v", errorCode, e.Msg, e.Err)
	}
	return fmt.Sprintf("TokenStoreError (code %s): %s", errorCode, e.Msg)
}

// Unwrap returns the underlying error (if any) for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new Error wrapping an underlying error.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCStoreUnavailable                // 2: The store is closed or its pipeline rejected the operation.
	RetCInvalidOperation                // 3: Invalid operation.
)
