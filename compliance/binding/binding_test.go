package binding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokengate-org/tokengate/keyvaluedb/memorydb"
	"github.com/tokengate-org/tokengate/types"
)

var coreA = types.CoreID{0x0A}

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger("test-module", memorydb.New())
	require.NoError(t, err)
	return l
}

func TestNewLedger_InvalidInputs(t *testing.T) {
	_, err := NewLedger("", memorydb.New())
	require.ErrorContains(t, err, "module identifier must be assigned")
	_, err = NewLedger("m", nil)
	require.ErrorContains(t, err, "storage must be assigned")
}

func TestBindUnbindLifecycle(t *testing.T) {
	l := newLedger(t)
	require.False(t, l.IsBound(coreA))
	require.ErrorIs(t, l.RequireBound(coreA), ErrNotBound)

	require.NoError(t, l.Bind(coreA))
	require.True(t, l.IsBound(coreA))
	require.NoError(t, l.RequireBound(coreA))
	require.ErrorIs(t, l.Bind(coreA), ErrAlreadyBound)

	epoch, err := l.Epoch(coreA)
	require.NoError(t, err)
	require.EqualValues(t, 0, epoch)

	require.NoError(t, l.Unbind(coreA))
	require.False(t, l.IsBound(coreA))
	require.ErrorIs(t, l.Unbind(coreA), ErrNotBound)

	epoch, err = l.Epoch(coreA)
	require.NoError(t, err)
	require.EqualValues(t, 1, epoch)
}

func TestEpochInvalidation(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Bind(coreA))
	require.NoError(t, l.WriteState(coreA, []byte("cap"), uint64(100)))

	var v uint64
	found, err := l.ReadState(coreA, []byte("cap"), &v)
	require.NoError(t, err)
	require.True(t, found)
	require.EqualValues(t, 100, v)

	// unbind + rebind: the old state must be unreachable even though it
	// was never deleted
	require.NoError(t, l.Unbind(coreA))
	require.NoError(t, l.Bind(coreA))

	v = 0
	found, err = l.ReadState(coreA, []byte("cap"), &v)
	require.NoError(t, err)
	require.False(t, found)
	require.Zero(t, v)
}

func TestPreBindingStateSurvivesBind(t *testing.T) {
	// balance-cap preset writes state before the core is bound; the next
	// Bind must expose exactly that state
	l := newLedger(t)
	require.NoError(t, l.WriteState(coreA, []byte("preset"), true))
	require.NoError(t, l.Bind(coreA))

	var flag bool
	found, err := l.ReadState(coreA, []byte("preset"), &flag)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, flag)
}

func TestBindingsAreIsolatedPerCore(t *testing.T) {
	l := newLedger(t)
	coreB := types.CoreID{0x0B}
	require.NoError(t, l.Bind(coreA))
	require.NoError(t, l.Bind(coreB))
	require.NoError(t, l.WriteState(coreA, []byte("k"), uint64(1)))

	var v uint64
	found, err := l.ReadState(coreB, []byte("k"), &v)
	require.NoError(t, err)
	require.False(t, found)
}

func TestModulesShareOneDB(t *testing.T) {
	db := memorydb.New()
	l1, err := NewLedger("module-one", db)
	require.NoError(t, err)
	l2, err := NewLedger("module-two", db)
	require.NoError(t, err)

	require.NoError(t, l1.Bind(coreA))
	require.NoError(t, l1.WriteState(coreA, []byte("k"), uint64(7)))

	var v uint64
	found, err := l2.ReadState(coreA, []byte("k"), &v)
	require.NoError(t, err)
	require.False(t, found)
	require.False(t, l2.IsBound(coreA))
}
