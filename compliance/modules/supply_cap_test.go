package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	testlog "github.com/tokengate-org/tokengate/internal/testutils/logger"
)

func TestSupplyCapModule_Check(t *testing.T) {
	state := &fakeState{supply: 1500}
	m, err := NewSupplyCapModule(WithLedgerState(state), WithLogger(testlog.New(t)))
	require.NoError(t, err)
	require.NoError(t, m.BindNotify(testCore))
	require.NoError(t, m.Configure(testCore, command(t, CmdSetSupplyCap, CapParams{Cap: 1600})))

	// issuance is judged against current supply plus the minted amount
	require.False(t, m.ModuleCheck(execCtx{}, testCore, nil, alice, 101))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, nil, alice, 100))

	// regular transfers and redemptions do not change supply headroom
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 5000))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, nil, 5000))

	// a cap below current supply blocks all further issuance
	require.NoError(t, m.Configure(testCore, command(t, CmdSetSupplyCap, CapParams{Cap: 1000})))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, nil, alice, 1))
}

func TestSupplyCapModule_UnboundPassesEverything(t *testing.T) {
	m, err := NewSupplyCapModule(WithLedgerState(&fakeState{supply: 1500}), WithLogger(testlog.New(t)))
	require.NoError(t, err)
	require.True(t, m.ModuleCheck(execCtx{}, testCore, nil, alice, 5000))
}
