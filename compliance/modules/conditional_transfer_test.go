package modules

import (
	"testing"

	"github.com/stretchr/testify/require"

	testlog "github.com/tokengate-org/tokengate/internal/testutils/logger"
)

func newConditionalTransferModule(t *testing.T) *ConditionalTransferModule {
	t.Helper()
	m, err := NewConditionalTransferModule(WithLogger(testlog.New(t)))
	require.NoError(t, err)
	require.NoError(t, m.BindNotify(testCore))
	return m
}

func TestConditionalTransferModule_ApprovalGatesTransfers(t *testing.T) {
	m := newConditionalTransferModule(t)

	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
	// issuance and redemption need no pre-approval
	require.True(t, m.ModuleCheck(execCtx{}, testCore, nil, bob, 100))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, nil, 100))

	require.NoError(t, m.Configure(testCore, command(t, CmdApproveTransfer,
		TransferApprovalParams{From: alice, To: bob, Amount: 100})))

	// the approval matches the exact tuple only
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 99))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, bob, alice, 100))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, charlie, 100))
}

func TestConditionalTransferModule_TransferConsumesApproval(t *testing.T) {
	m := newConditionalTransferModule(t)
	require.NoError(t, m.Configure(testCore, command(t, CmdApproveTransfer,
		TransferApprovalParams{From: alice, To: bob, Amount: 100})))

	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
	require.NoError(t, m.TransferAction(execCtx{}, testCore, alice, bob, 100))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))

	// the hook firing without a matching approval is an integration bug
	err := m.TransferAction(execCtx{}, testCore, alice, bob, 100)
	require.ErrorContains(t, err, "without a pending approval")
}

func TestConditionalTransferModule_ApprovalsAccumulate(t *testing.T) {
	m := newConditionalTransferModule(t)
	approval := TransferApprovalParams{From: alice, To: bob, Amount: 100}
	require.NoError(t, m.Configure(testCore, command(t, CmdApproveTransfer, approval)))
	require.NoError(t, m.Configure(testCore, command(t, CmdApproveTransfer, approval)))

	require.NoError(t, m.TransferAction(execCtx{}, testCore, alice, bob, 100))
	require.True(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
	require.NoError(t, m.TransferAction(execCtx{}, testCore, alice, bob, 100))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
}

func TestConditionalTransferModule_Unapprove(t *testing.T) {
	m := newConditionalTransferModule(t)
	approval := TransferApprovalParams{From: alice, To: bob, Amount: 100}

	err := m.Configure(testCore, command(t, CmdUnapproveTransfer, approval))
	require.ErrorContains(t, err, "no pending approval")

	require.NoError(t, m.Configure(testCore, command(t, CmdApproveTransfer, approval)))
	require.NoError(t, m.Configure(testCore, command(t, CmdUnapproveTransfer, approval)))
	require.False(t, m.ModuleCheck(execCtx{}, testCore, alice, bob, 100))
}
