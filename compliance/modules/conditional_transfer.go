package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
	"github.com/tokengate-org/tokengate/util"
)

const (
	ConditionalTransferModuleName = "conditional-transfer"

	CmdApproveTransfer   = "approve-transfer"
	CmdUnapproveTransfer = "unapprove-transfer"
)

// TransferApprovalParams is the parameter payload of the approval commands.
type TransferApprovalParams struct {
	_      struct{} `cbor:",toarray"`
	From   types.Address
	To     types.Address
	Amount uint64
}

/*
ConditionalTransferModule approves only transfers that have a matching
pending pre-approval for the exact (sender, recipient, amount) tuple at
this binding. A successful transfer consumes one approval. Approvals are
keyed by a content hash; the core↔ledger relation is 1:1 so scoping the
hash by the binding implies the ledger.
*/
type ConditionalTransferModule struct {
	moduleBase
}

var _ compliance.Module = (*ConditionalTransferModule)(nil)

func NewConditionalTransferModule(opts ...Option) (*ConditionalTransferModule, error) {
	base, err := newModuleBase(ConditionalTransferModuleName, true, optionsOf(opts))
	if err != nil {
		return nil, err
	}
	return &ConditionalTransferModule{moduleBase: base}, nil
}

func (m *ConditionalTransferModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	var p TransferApprovalParams
	switch cmd.Name {
	case CmdApproveTransfer:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		key := approvalKey(p.From, p.To, p.Amount)
		count, err := m.approvals(core, key)
		if err != nil {
			return err
		}
		return m.bindings.WriteState(core, key, count+1)
	case CmdUnapproveTransfer:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		key := approvalKey(p.From, p.To, p.Amount)
		count, err := m.approvals(core, key)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("no pending approval for the transfer")
		}
		if count == 1 {
			return m.bindings.DeleteState(core, key)
		}
		return m.bindings.WriteState(core, key, count-1)
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *ConditionalTransferModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, from, to types.Address, amount uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	// pre-approval gates regular transfers only
	if from.IsZero() || to.IsZero() {
		return true
	}
	count, err := m.approvals(core, approvalKey(from, to, amount))
	if err != nil {
		m.log.Error("reading transfer approvals", logger.Error(err))
		return false
	}
	return count > 0
}

func (m *ConditionalTransferModule) TransferAction(_ compliance.ExecutionContext, core types.CoreID, from, to types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	key := approvalKey(from, to, amount)
	count, err := m.approvals(core, key)
	if err != nil {
		return err
	}
	if count == 0 {
		// the preceding check must have seen an approval, so the hook ran
		// without one only on an integration bug
		return fmt.Errorf("transfer action without a pending approval")
	}
	if count == 1 {
		return m.bindings.DeleteState(core, key)
	}
	return m.bindings.WriteState(core, key, count-1)
}

func (m *ConditionalTransferModule) approvals(core types.CoreID, key []byte) (uint64, error) {
	var count uint64
	if _, err := m.bindings.ReadState(core, key, &count); err != nil {
		return 0, fmt.Errorf("reading transfer approvals: %w", err)
	}
	return count, nil
}

func approvalKey(from, to types.Address, amount uint64) []byte {
	hash := util.Sum256(
		append([]byte{byte(len(from))}, from...),
		append([]byte{byte(len(to))}, to...),
		util.Uint64ToBytes(amount),
	)
	return append([]byte("approval:"), hash...)
}
