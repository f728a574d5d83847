// Package security provides id generation and session tokens
package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateSessionID returns a new sortable, unique editor session id.
func GenerateSessionID() string {
	return ulid.Make().String()
}

// IsSessionID reports whether id parses as a ULID.
func IsSessionID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// GenerateSecureKey creates a cryptographically secure random key and returns
// it as a hex string of the requested length.
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes)[:length], nil
}
