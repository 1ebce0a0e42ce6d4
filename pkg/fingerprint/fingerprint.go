// Package fingerprint maps free-text questions to short stable identifiers.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Length of the hex identifier returned by Hash.
const Length = 16

// Normalize trims the text, lower-cases it, and collapses every interior
// whitespace run to a single space. Questions that differ only in case or
// whitespace normalize to the same string.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Hash returns a fixed-length hex fingerprint of the normalized text.
// Defined for all input, including the empty string.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])[:Length]
}
