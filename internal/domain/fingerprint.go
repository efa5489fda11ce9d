package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of the exact byte content of a
// document. It is used for change detection, not for security: identical
// bytes always yield the same digest, any byte difference yields another.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
