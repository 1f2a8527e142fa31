// Package secrets generates webhook signing secrets.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// secretBytes is the entropy of a generated secret. Provider-supplied
// secrets (pasted from GitHub/Linear/Jira) are stored verbatim and may
// have any length.
const secretBytes = 32

// New returns a fresh hex-encoded secret: 32 random bytes, 64 hex chars.
func New() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
