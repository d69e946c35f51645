package security

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the entropy of every bearer credential we mint.
// 32 random bytes (256 bits) encoded as a 64-character hex string.
const tokenBytes = 32

// GenerateToken creates a cryptographically random opaque token.
// Used for both session tokens and exchange tokens; uniqueness comes
// from entropy, never from a sequence.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
