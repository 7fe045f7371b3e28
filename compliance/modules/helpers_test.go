package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokengate-org/tokengate/types"
)

var (
	testCore = types.CoreID{0xC0}

	alice   = types.Address{0x01}
	bob     = types.Address{0x02}
	charlie = types.Address{0x03}
)

type execCtx struct {
	time  uint64
	round uint64
}

func (c execCtx) CurrentTime() uint64 { return c.time }

func (c execCtx) CurrentRound() uint64 { return c.round }

// fakeState is a canned ledger.StateReader for module tests.
type fakeState struct {
	supply    uint64
	balances  map[string]uint64
	frozen    map[string]uint64
	operators map[string]bool
}

func (s *fakeState) BalanceOf(addr types.Address) uint64 { return s.balances[addr.Key()] }

func (s *fakeState) TotalSupply() uint64 { return s.supply }

func (s *fakeState) FrozenOf(addr types.Address) uint64 { return s.frozen[addr.Key()] }

func (s *fakeState) IsOperator(addr types.Address) bool { return s.operators[addr.Key()] }

type movedValue struct {
	from, to types.Address
	amount   uint64
}

// fakeMover records the forced transfers the fee module issues.
type fakeMover struct {
	err   error
	moves []movedValue
}

func (m *fakeMover) ForcedTransfer(from, to types.Address, amount uint64) error {
	if m.err != nil {
		return m.err
	}
	m.moves = append(m.moves, movedValue{from: from, to: to, amount: amount})
	return nil
}

func command(t *testing.T, name string, params any) types.ConfigCommand {
	t.Helper()
	cmd, err := types.NewConfigCommand(name, params)
	require.NoError(t, err)
	return cmd
}
