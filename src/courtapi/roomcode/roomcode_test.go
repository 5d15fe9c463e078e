package roomcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := New()
		require.NoError(t, err)
		assert.Len(t, code, Length)
		assert.True(t, Valid(code), "generated code %q must validate", code)
		seen[code] = true
	}
	// 32^6 combinations; 100 draws colliding would point at a broken source.
	assert.Greater(t, len(seen), 90)
}

func TestAlphabetExcludesAmbiguousSymbols(t *testing.T) {
	for _, r := range "01OI" {
		assert.False(t, strings.ContainsRune(Alphabet, r), "%c must not appear in codes", r)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "AB23CD", Normalize("  ab23cd "))
	assert.Equal(t, "AB23CD", Normalize("AB23CD"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("AB23CD"))
	assert.False(t, Valid("AB23C"), "too short")
	assert.False(t, Valid("AB23CDE"), "too long")
	assert.False(t, Valid("AB23C0"), "ambiguous zero")
	assert.False(t, Valid("ab23cd"), "lowercase must be normalized first")
	assert.False(t, Valid(""))
}
