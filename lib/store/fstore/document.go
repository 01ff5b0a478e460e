package fstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode"

	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

// --------------------------------------------------------------------------
// Store Document
// --------------------------------------------------------------------------

// storeDocument is the on-disk representation of the store: the salt plus
// the ordered record sequence. Order carries display semantics only.
type storeDocument struct {
	Salt    string         `json:"salt"`
	Records []store.Record `json:"records"`
}

// errInvalidFormat marks a file that parses as JSON but matches neither the
// current document shape nor the legacy bare-sequence shape.
var errInvalidFormat = errors.New("store file does not match any known document shape")

// --------------------------------------------------------------------------
// Structural Decoding
// --------------------------------------------------------------------------

// decodeDocument decodes the raw file content into the canonical in-memory
// shape. The format is detected structurally: a top-level array is the
// legacy shape (no salt), a top-level object must carry a records sequence.
// The legacy return value reports which shape was found.
//
// Errors are either JSON parse errors or errInvalidFormat; callers treat
// them almost identically (stale-but-available fallback), they only differ
// in whether the content counted as a successful parse.
func decodeDocument(data []byte) (doc storeDocument, legacy bool, err error) {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 {
		return doc, false, errors.New("store file is empty")
	}

	switch trimmed[0] {
	// Case legacy shape: bare record sequence
	case '[':
		var records []store.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return doc, false, err
		}
		if records == nil {
			records = []store.Record{}
		}
		return storeDocument{Records: records}, true, nil

	// Case current shape: {salt, records}
	case '{':
		var probe struct {
			Salt    string          `json:"salt"`
			Records json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return doc, false, err
		}
		if probe.Records == nil {
			return doc, false, errInvalidFormat
		}
		var records []store.Record
		if err := json.Unmarshal(probe.Records, &records); err != nil {
			return doc, false, errInvalidFormat
		}
		if records == nil {
			records = []store.Record{}
		}
		return storeDocument{Salt: probe.Salt, Records: records}, false, nil

	// Case anything else: either broken JSON or a valid scalar - neither shape
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return doc, false, err
		}
		return doc, false, errInvalidFormat
	}
}

// encodeDocument renders the document as indented UTF-8 JSON.
func encodeDocument(doc storeDocument) ([]byte, error) {
	if doc.Records == nil {
		doc.Records = []store.Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
