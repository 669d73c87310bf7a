package keys

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Length is the fixed width of every generated key.
// A 128-bit value needs at most 25 base36 digits.
const Length = 25

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// New returns a fresh random key: a version 4 UUID rendered as Length lowercase base36
// characters, left-padded with zeros.
func New() string {
	id := uuid.New()
	s := new(big.Int).SetBytes(id[:]).Text(36)
	if len(s) < Length {
		s = strings.Repeat("0", Length-len(s)) + s
	}
	return s
}

// Valid reports whether s has the shape of a generated key. Keys are used to build file
// paths, so anything else is rejected before it reaches the filesystem.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
