package util

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
)

func Uint64ToBytes(i uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, i)
	return b
}

func BytesToUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func Uint16ToBytes(i uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, i)
	return b
}

// AddUint64 adds the values, returning an error on overflow.
func AddUint64(values ...uint64) (uint64, error) {
	var sum uint64
	for _, v := range values {
		if v > math.MaxUint64-sum {
			return 0, fmt.Errorf("uint64 sum overflow: %d + %d", sum, v)
		}
		sum += v
	}
	return sum, nil
}

// Sum256 returns the SHA-256 digest over the concatenation of the inputs.
func Sum256(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
