package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/ledger"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
	"github.com/tokengate-org/tokengate/util"
)

const (
	SupplyCapModuleName = "supply-cap"

	CmdSetSupplyCap = "set-supply-cap"
)

/*
SupplyCapModule caps the ledger's total supply: issuance is approved iff
the current total supply plus the minted amount stays within the cap.
Transfers and redemptions always pass. Supply itself is tracked by the
ledger, the module only reads it.
*/
type SupplyCapModule struct {
	moduleBase
	ledgerState ledger.StateReader
}

var _ compliance.Module = (*SupplyCapModule)(nil)

func NewSupplyCapModule(opts ...Option) (*SupplyCapModule, error) {
	options := optionsOf(opts)
	if options.ledgerState == nil {
		return nil, fmt.Errorf("ledger state reader is required")
	}
	base, err := newModuleBase(SupplyCapModuleName, false, options)
	if err != nil {
		return nil, err
	}
	return &SupplyCapModule{moduleBase: base, ledgerState: options.ledgerState}, nil
}

func (m *SupplyCapModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	switch cmd.Name {
	case CmdSetSupplyCap:
		var p CapParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.WriteState(core, capKey(), p.Cap)
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *SupplyCapModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, from, _ types.Address, amount uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	// only issuance is capped
	if !from.IsZero() {
		return true
	}
	var maxSupply uint64
	if _, err := m.bindings.ReadState(core, capKey(), &maxSupply); err != nil {
		m.log.Error("reading supply cap", logger.Error(err))
		return false
	}
	post, err := util.AddUint64(m.ledgerState.TotalSupply(), amount)
	if err != nil {
		return false
	}
	return post <= maxSupply
}
