package base58_test

import (
	"math"
	"testing"

	"github.com/serroba/shortlink/internal/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    uint64
		expected string
	}{
		{"first identifier", 1, "b"},
		{"last single digit", 57, "9"},
		{"first two digit value", 58, "ba"},
		{"two digits", 59, "bb"},
		{"three digits", 58 * 58, "baa"},
		{"max uint64", math.MaxUint64, "TYFmHNMqPDy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, base58.Encode(tt.input))
		})
	}
}

func TestEncode_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { base58.Encode(0) })
}

func TestEncode_NeverUsesAmbiguousCharacters(t *testing.T) {
	for id := uint64(1); id < 10_000; id++ {
		assert.NotContains(t, base58.Encode(id), "l")
		assert.NotContains(t, base58.Encode(id), "I")
		assert.NotContains(t, base58.Encode(id), "O")
		assert.NotContains(t, base58.Encode(id), "0")
	}
}

func TestEncode_Injective(t *testing.T) {
	seen := make(map[string]uint64)

	check := func(id uint64) {
		token := base58.Encode(id)
		if prev, ok := seen[token]; ok && prev != id {
			t.Fatalf("ids %d and %d both encode to %q", prev, id, token)
		}

		seen[token] = id
	}

	for id := uint64(1); id <= 200_000; id++ {
		check(id)
	}

	const maxSafe = uint64(1) << 53
	for id := maxSafe - 1000; id <= maxSafe; id++ {
		check(id)
	}
}

func TestDecode(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		for _, id := range []uint64{1, 57, 58, 3363, 1 << 32, 1 << 53, math.MaxUint64} {
			got, err := base58.Decode(base58.Encode(id))

			require.NoError(t, err)
			assert.Equal(t, id, got)
		}
	})

	t.Run("rejects characters outside the alphabet", func(t *testing.T) {
		for _, s := range []string{"0", "l", "I", "O", "ab-c", "a b"} {
			_, err := base58.Decode(s)

			assert.ErrorIs(t, err, base58.ErrInvalidCharacter, s)
		}
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := base58.Decode("")

		assert.ErrorIs(t, err, base58.ErrEmpty)
	})

	t.Run("detects overflow", func(t *testing.T) {
		_, err := base58.Decode("9999999999999")

		assert.ErrorIs(t, err, base58.ErrOverflow)
	})
}

func TestIsValid(t *testing.T) {
	assert.True(t, base58.IsValid("b"))
	assert.True(t, base58.IsValid(base58.Encode(123456789)))
	assert.False(t, base58.IsValid(""))
	assert.False(t, base58.IsValid("a"), "zero symbol alone is never produced")
	assert.False(t, base58.IsValid("ab"), "leading zero symbol is never produced")
	assert.False(t, base58.IsValid("hello world"))
}
