package roomcode

import (
	"crypto/rand"
	"strings"
)

// Alphabet is the 32-symbol set used for shareable room codes. Visually
// ambiguous characters (0/O, 1/I) are excluded so codes survive being read
// aloud or scrawled on a napkin.
const Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// Length of a room code. Collisions are possible but accepted as negligible
// at 32^6 combinations; there is no uniqueness retry.
const Length = 6

// New generates a fresh room code.
func New() (string, error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, Length)
	for i, v := range b {
		out[i] = Alphabet[int(v)%len(Alphabet)]
	}
	return string(out), nil
}

// Normalize uppercases a user-entered code. Codes are case-insensitive on
// input but stored uppercase.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether a normalized code has the right shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}
