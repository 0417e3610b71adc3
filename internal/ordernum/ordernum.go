// Package ordernum generates human-facing order numbers.
package ordernum

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const (
	prefix   = "ORD-"
	length   = 6
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Pattern matches a well-formed order number.
var Pattern = regexp.MustCompile(`^ORD-[A-Z0-9]{6}$`)

// Generate returns a candidate order number of the form ORD-XXXXXX where
// X is an uppercase alphanumeric character. Uniqueness is not guaranteed
// here; callers must enforce it at the store level and retry on conflict.
func Generate() (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}

	return prefix + string(buf), nil
}

// Valid reports whether s is a well-formed order number.
func Valid(s string) bool {
	return Pattern.MatchString(s)
}
