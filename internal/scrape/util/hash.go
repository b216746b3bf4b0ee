package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashString returns the first 16 hex chars of sha256(s).
func HashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}
