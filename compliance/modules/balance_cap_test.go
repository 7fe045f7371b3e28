package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokengate-org/tokengate/identity"
	testlog "github.com/tokengate-org/tokengate/internal/testutils/logger"
	"github.com/tokengate-org/tokengate/types"
)

func newBalanceCapModule(t *testing.T, registry identity.Registry, state *fakeState) *BalanceCapModule {
	t.Helper()
	m, err := NewBalanceCapModule(
		WithRegistry(registry),
		WithLedgerState(state),
		WithLogger(testlog.New(t)),
	)
	require.NoError(t, err)
	return m
}

func TestBalanceCapModule_Check(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(alice, nil, 42)
	registry.Register(bob, nil, 42)

	m := newBalanceCapModule(t, registry, &fakeState{})
	require.NoError(t, m.BindNotify(testCore))
	require.NoError(t, m.Configure(testCore, command(t, CmdSetBalanceCap, CapParams{Cap: 1000})))

	// mint 950 to bob, then judge transfers against the 1000 cap
	require.NoError(t, m.MintAction(execCtx{}, testCore, bob, 950))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 50))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 51))

	// redemption is exempt regardless of the sender's holdings
	require.True(t, m.ModuleCheck(execCtx{}, testCore, bob, nil, 50))
}

func TestBalanceCapModule_UnsetCapAdmitsNothing(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(bob, nil, 42)

	m := newBalanceCapModule(t, registry, &fakeState{})
	require.NoError(t, m.BindNotify(testCore))

	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 1))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 0))
}

func TestBalanceCapModule_AggregatesByIdentity(t *testing.T) {
	// bobWallet2 belongs to bob's identity, their balances count as one
	bobWallet2 := types.Address{0x22}
	registry := identity.NewMemoryRegistry()
	registry.Register(bob, nil, 42)
	registry.Register(bobWallet2, bob, 42)

	m := newBalanceCapModule(t, registry, &fakeState{})
	require.NoError(t, m.BindNotify(testCore))
	require.NoError(t, m.Configure(testCore, command(t, CmdSetBalanceCap, CapParams{Cap: 100})))

	require.NoError(t, m.MintAction(execCtx{}, testCore, bob, 60))
	require.NoError(t, m.MintAction(execCtx{}, testCore, bobWallet2, 30))

	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bobWallet2, 10))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bobWallet2, 11))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 11))

	// moving between the identity's own wallets keeps the aggregate flat
	require.NoError(t, m.TransferAction(execCtx{}, testCore, bob, bobWallet2, 60))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 10))

	// burning frees headroom
	require.NoError(t, m.BurnAction(execCtx{}, testCore, bobWallet2, 50))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 60))
}

func TestBalanceCapModule_Preset(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(alice, nil, 42)
	registry.Register(bob, nil, 42)
	state := &fakeState{supply: 500}

	m := newBalanceCapModule(t, registry, state)

	// nonzero supply the module has not seen blocks the binding
	require.False(t, m.CanBind(testCore))

	require.NoError(t, m.PresetBalances(testCore, []BalancePreset{
		{Wallet: alice, Balance: 300},
		{Wallet: bob, Balance: 200},
	}))
	require.True(t, m.CanBind(testCore))
	require.NoError(t, m.BindNotify(testCore))

	// the preset is closed once bound
	err := m.PresetBalances(testCore, []BalancePreset{{Wallet: alice, Balance: 1}})
	require.ErrorIs(t, err, ErrPresetClosed)

	// preset balances count against the cap
	require.NoError(t, m.Configure(testCore, command(t, CmdSetBalanceCap, CapParams{Cap: 350})))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, bob, alice, 50))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, bob, alice, 51))
}

func TestBalanceCapModule_FreshLedgerBindsFreely(t *testing.T) {
	m := newBalanceCapModule(t, identity.NewMemoryRegistry(), &fakeState{})
	require.True(t, m.CanBind(testCore))
}

func TestBalanceCapModule_UnderflowIsAnError(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(alice, nil, 42)

	m := newBalanceCapModule(t, registry, &fakeState{})
	require.NoError(t, m.BindNotify(testCore))

	err := m.BurnAction(execCtx{}, testCore, alice, 1)
	require.ErrorContains(t, err, "underflows")
}
