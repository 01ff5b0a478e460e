// Package ident provides salt generation and stable account identifier
// derivation. Account IDs are derived from the store salt and a record's
// reference token, so external surfaces can address records without ever
// exposing the raw token.
package ident

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// --------------------------------------------------------------------------
// Salt Generation
// --------------------------------------------------------------------------

// saltBytes is the number of random bytes in a salt (hex-encoded to twice
// that many characters).
const saltBytes = 16

// GenerateSalt creates a new cryptographically random salt.
func GenerateSalt() string {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		// Fallback with the current time, only as a last resort
		return hex.EncodeToString(
			sha256.New().Sum([]byte(time.Now().String()))[:saltBytes],
		)
	}
	return hex.EncodeToString(b)
}

// --------------------------------------------------------------------------
// Identifier Derivation
// --------------------------------------------------------------------------

// idBytes is the number of bytes of the derivation kept for an account ID.
const idBytes = 12

// AccountID derives a stable identifier for a reference token. The same
// salt and token always yield the same ID; without the salt the token
// cannot be recovered from the ID.
func AccountID(salt, refreshToken string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(refreshToken))
	return hex.EncodeToString(mac.Sum(nil)[:idBytes])
}
