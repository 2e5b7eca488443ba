package utils

import (
	"crypto/rand"
	"fmt"
)

// NewIntentSalt draws a fresh 32-byte salt from the system CSPRNG. Every
// burn intent gets its own salt; reuse across intents for the same
// depositor and domain risks attestation rejection or replay ambiguity.
func NewIntentSalt() ([32]byte, error) {
	var salt [32]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("read salt: %w", err)
	}
	return salt, nil
}
