package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokengate-org/tokengate/types"
)

var (
	alice = types.Address{0x01}
	bob   = types.Address{0x02}
)

func TestMemoryLedger_MintBurn(t *testing.T) {
	l := NewMemoryLedger(types.LedgerID{0xF0})

	require.NoError(t, l.commitMint(alice, 100))
	require.EqualValues(t, 100, l.BalanceOf(alice))
	require.EqualValues(t, 100, l.TotalSupply())

	require.ErrorContains(t, l.commitMint(nil, 100), "zero address")

	require.NoError(t, l.commitBurn(alice, 40))
	require.EqualValues(t, 60, l.BalanceOf(alice))
	require.EqualValues(t, 60, l.TotalSupply())

	require.ErrorContains(t, l.commitBurn(alice, 61), "insufficient available balance")
}

func TestMemoryLedger_Transfer(t *testing.T) {
	l := NewMemoryLedger(types.LedgerID{0xF0})
	require.NoError(t, l.commitMint(alice, 100))

	require.NoError(t, l.commitTransfer(alice, bob, 30))
	require.EqualValues(t, 70, l.BalanceOf(alice))
	require.EqualValues(t, 30, l.BalanceOf(bob))
	require.EqualValues(t, 100, l.TotalSupply())

	require.ErrorContains(t, l.commitTransfer(alice, bob, 71), "insufficient available balance")
	require.ErrorContains(t, l.commitTransfer(nil, bob, 1), "zero address")
	require.ErrorContains(t, l.commitTransfer(alice, nil, 1), "zero address")
}

func TestMemoryLedger_FrozenBalance(t *testing.T) {
	l := NewMemoryLedger(types.LedgerID{0xF0})
	require.NoError(t, l.commitMint(alice, 100))

	l.SetFrozen(alice, 80)
	require.EqualValues(t, 80, l.FrozenOf(alice))
	require.ErrorContains(t, l.commitTransfer(alice, bob, 21), "insufficient available balance")
	require.NoError(t, l.commitTransfer(alice, bob, 20))

	// frozen above the whole balance just blocks all spending
	l.SetFrozen(alice, 500)
	require.ErrorContains(t, l.commitBurn(alice, 1), "insufficient available balance")
}

func TestMemoryLedger_Operators(t *testing.T) {
	l := NewMemoryLedger(types.LedgerID{0xF0})
	require.False(t, l.IsOperator(alice))
	l.GrantOperator(alice)
	require.True(t, l.IsOperator(alice))
	l.RevokeOperator(alice)
	require.False(t, l.IsOperator(alice))
}
