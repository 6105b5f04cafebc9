package common

import "strings"

// WipeByteArray overwrites the contents of b with zeros. Used to drop
// passwords read from the terminal as soon as they are hashed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// NormalizeEmail is the canonical form of an email address used for
// lookups, uniqueness and login throttling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
