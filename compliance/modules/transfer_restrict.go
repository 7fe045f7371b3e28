package modules

import (
	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
)

const (
	TransferRestrictModuleName = "transfer-restrict"

	CmdAllowCounterparty    = "allow-counterparty"
	CmdDisallowCounterparty = "disallow-counterparty"
)

// CounterpartyParams is the parameter payload of the counterparty
// allow-list commands.
type CounterpartyParams struct {
	_      struct{} `cbor:",toarray"`
	Wallet types.Address
}

/*
TransferRestrictModule approves a transfer iff the sender or the recipient
is on the per-binding allowed wallet list, or either side is the mint/burn
counterparty. With an empty list every regular transfer is rejected.
*/
type TransferRestrictModule struct {
	moduleBase
}

var _ compliance.Module = (*TransferRestrictModule)(nil)

func NewTransferRestrictModule(opts ...Option) (*TransferRestrictModule, error) {
	base, err := newModuleBase(TransferRestrictModuleName, true, optionsOf(opts))
	if err != nil {
		return nil, err
	}
	return &TransferRestrictModule{moduleBase: base}, nil
}

func (m *TransferRestrictModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	var p CounterpartyParams
	switch cmd.Name {
	case CmdAllowCounterparty:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.WriteState(core, walletKey(p.Wallet), true)
	case CmdDisallowCounterparty:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.DeleteState(core, walletKey(p.Wallet))
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *TransferRestrictModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, from, to types.Address, _ uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	if from.IsZero() || to.IsZero() {
		return true
	}
	return m.walletAllowed(core, from) || m.walletAllowed(core, to)
}

func (m *TransferRestrictModule) walletAllowed(core types.CoreID, wallet types.Address) bool {
	var allowed bool
	found, err := m.bindings.ReadState(core, walletKey(wallet), &allowed)
	if err != nil {
		m.log.Error("reading allowed wallet list", logger.Error(err))
		return false
	}
	return found && allowed
}

func walletKey(wallet types.Address) []byte {
	return append([]byte("wallet:"), wallet...)
}
