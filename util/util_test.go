package util

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64Bytes(t *testing.T) {
	for _, v := range []uint64{0, 1, math.MaxUint64, 1 << 40} {
		require.Equal(t, v, BytesToUint64(Uint64ToBytes(v)))
	}
}

func TestAddUint64(t *testing.T) {
	sum, err := AddUint64(1, 2, 3)
	require.NoError(t, err)
	require.EqualValues(t, 6, sum)

	_, err = AddUint64(math.MaxUint64, 1)
	require.ErrorContains(t, err, "overflow")

	sum, err = AddUint64()
	require.NoError(t, err)
	require.Zero(t, sum)
}

func TestSum256(t *testing.T) {
	want, err := hex.DecodeString("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")
	require.NoError(t, err)
	require.Equal(t, want, Sum256([]byte("te"), []byte("st")))
}
