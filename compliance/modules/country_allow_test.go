package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokengate-org/tokengate/compliance/binding"
	"github.com/tokengate-org/tokengate/identity"
	testlog "github.com/tokengate-org/tokengate/internal/testutils/logger"
	"github.com/tokengate-org/tokengate/types"
)

func newCountryAllowModule(t *testing.T, registry identity.Registry) *CountryAllowModule {
	t.Helper()
	m, err := NewCountryAllowModule(WithRegistry(registry), WithLogger(testlog.New(t)))
	require.NoError(t, err)
	return m
}

func TestCountryAllowModule_RequiresRegistry(t *testing.T) {
	_, err := NewCountryAllowModule()
	require.ErrorContains(t, err, "identity registry is required")
}

func TestCountryAllowModule_Check(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(alice, nil, 42)
	registry.Register(bob, nil, 42)
	registry.Register(charlie, nil, 10)

	m := newCountryAllowModule(t, registry)
	require.NoError(t, m.BindNotify(testCore))
	require.NoError(t, m.Configure(testCore, command(t, CmdAddAllowedCountry, CountryParams{Code: 42})))

	// recipients drive the decision, the sender's jurisdiction does not
	require.True(t, m.ModuleCheck(execCtx{}, testCore, charlie, bob, 100))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, charlie, 100))

	// unverified recipients have no jurisdiction to judge
	unknown := types.Address{0x99}
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, unknown, 100))

	require.NoError(t, m.Configure(testCore, command(t, CmdRemoveAllowedCountry, CountryParams{Code: 42})))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
}

func TestCountryAllowModule_UnboundPassesEverything(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(bob, nil, 10)

	m := newCountryAllowModule(t, registry)
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
}

func TestCountryAllowModule_ConfigureRequiresBinding(t *testing.T) {
	m := newCountryAllowModule(t, identity.NewMemoryRegistry())
	err := m.Configure(testCore, command(t, CmdAddAllowedCountry, CountryParams{Code: 42}))
	require.ErrorIs(t, err, binding.ErrNotBound)
}

func TestCountryAllowModule_UnknownCommand(t *testing.T) {
	m := newCountryAllowModule(t, identity.NewMemoryRegistry())
	require.NoError(t, m.BindNotify(testCore))
	err := m.Configure(testCore, command(t, "no-such-command", CountryParams{Code: 42}))
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestCountryAllowModule_RebindingDropsTheAllowedSet(t *testing.T) {
	registry := identity.NewMemoryRegistry()
	registry.Register(bob, nil, 42)

	m := newCountryAllowModule(t, registry)
	require.NoError(t, m.BindNotify(testCore))
	require.NoError(t, m.Configure(testCore, command(t, CmdAddAllowedCountry, CountryParams{Code: 42})))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))

	// unbinding bumps the epoch, the old set is unreachable after rebinding
	require.NoError(t, m.UnbindNotify(testCore))
	require.NoError(t, m.BindNotify(testCore))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
}
