// Package base58 encodes counter values into short, human friendly tokens.
//
// The alphabet leaves out l, I, O and 0 so tokens survive being read aloud or
// copied by hand. Encoding is bijective over positive integers: the most
// significant digit is never the zero symbol.
package base58

import (
	"errors"
	"math"
)

const alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ123456789"

const base = uint64(len(alphabet))

var (
	// ErrInvalidCharacter is returned when decoding a string outside the alphabet.
	ErrInvalidCharacter = errors.New("invalid character in base58 string")
	// ErrOverflow is returned when a decoded value does not fit in uint64.
	ErrOverflow = errors.New("decoded value exceeds uint64 range")
	// ErrEmpty is returned when decoding an empty string.
	ErrEmpty = errors.New("empty base58 string")
)

var values [256]int8

func init() {
	for i := range values {
		values[i] = -1
	}

	for i := range len(alphabet) {
		values[alphabet[i]] = int8(i)
	}
}

// Encode converts a positive identifier into its token. Identifiers start at
// one; passing zero is a programming error and panics.
func Encode(id uint64) string {
	if id == 0 {
		panic("base58: cannot encode zero identifier")
	}

	var buf [11]byte // ceil(log58(2^64))

	i := len(buf)
	for id > 0 {
		i--
		buf[i] = alphabet[id%base]
		id /= base
	}

	return string(buf[i:])
}

// Decode converts a token back into its identifier.
func Decode(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmpty
	}

	var id uint64

	for i := range len(s) {
		v := values[s[i]]
		if v < 0 {
			return 0, ErrInvalidCharacter
		}

		if id > (math.MaxUint64-uint64(v))/base {
			return 0, ErrOverflow
		}

		id = id*base + uint64(v)
	}

	return id, nil
}

// IsValid reports whether s could have been produced by Encode.
func IsValid(s string) bool {
	id, err := Decode(s)

	return err == nil && id > 0 && s[0] != alphabet[0]
}
