package memorydb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testValue struct {
	Name  string
	Count uint64
}

func TestMemoryDB_ReadWriteDelete(t *testing.T) {
	db := New()
	require.True(t, db.Empty())

	var v testValue
	found, err := db.Read([]byte("k"), &v)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Write([]byte("k"), &testValue{Name: "test", Count: 3}))
	require.False(t, db.Empty())

	found, err = db.Read([]byte("k"), &v)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, testValue{Name: "test", Count: 3}, v)

	require.NoError(t, db.Delete([]byte("k")))
	found, err = db.Read([]byte("k"), &v)
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryDB_InvalidInputs(t *testing.T) {
	db := New()
	var v testValue
	_, err := db.Read(nil, &v)
	require.ErrorContains(t, err, "key is empty")
	require.ErrorContains(t, db.Write([]byte("k"), nil), "value is nil")
	require.ErrorContains(t, db.Delete(nil), "key is empty")
}

func TestMemoryDB_Limiter(t *testing.T) {
	db := NewWithLimiter(1)
	require.NoError(t, db.Write([]byte("a"), 1))
	require.ErrorContains(t, db.Write([]byte("b"), 2), "disk is full")
	// overwriting existing key also counts against the limit
	require.ErrorContains(t, db.Write([]byte("a"), 3), "disk is full")
}
