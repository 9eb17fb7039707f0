package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns a trimmed-input SHA-256 hash encoded in hex.
func SHA256Hex(input string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(input)))
	return hex.EncodeToString(sum[:])
}

// Short returns the first 12 hex characters of the input's SHA-256 hash,
// used as a compact key in log fields.
func Short(input string) string {
	return SHA256Hex(input)[:12]
}
