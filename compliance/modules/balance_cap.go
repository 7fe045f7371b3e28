package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/ledger"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
	"github.com/tokengate-org/tokengate/util"
)

const (
	BalanceCapModuleName = "balance-cap"

	CmdSetBalanceCap = "set-balance-cap"
)

type (
	// CapParams is the parameter payload of the cap commands of the
	// balance-cap and supply-cap modules.
	CapParams struct {
		_   struct{} `cbor:",toarray"`
		Cap uint64
	}

	// BalancePreset seeds one wallet's balance into the module's identity
	// aggregates before binding.
	BalancePreset struct {
		_       struct{} `cbor:",toarray"`
		Wallet  types.Address
		Balance uint64
	}
)

/*
BalanceCapModule approves a transfer iff the recipient's post-transfer
aggregate identity balance stays within the configured cap. The module
tracks aggregate balances itself through the action hooks; when bound to a
core whose ledger already has nonzero supply the existing balances must be
preset first, otherwise the module refuses the binding.
*/
type BalanceCapModule struct {
	moduleBase
	registry    identity.Registry
	ledgerState ledger.StateReader
}

var _ compliance.Module = (*BalanceCapModule)(nil)

func NewBalanceCapModule(opts ...Option) (*BalanceCapModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if options.ledgerState == nil {
		return nil, fmt.Errorf("ledger state reader is required")
	}
	base, err := newModuleBase(BalanceCapModuleName, false, options)
	if err != nil {
		return nil, err
	}
	return &BalanceCapModule{moduleBase: base, registry: options.registry, ledgerState: options.ledgerState}, nil
}

/*
CanBind refuses the binding when the ledger already carries supply the
module has not seen, unless a preset has reconciled the existing balances.
*/
func (m *BalanceCapModule) CanBind(core types.CoreID) bool {
	if m.ledgerState.TotalSupply() == 0 {
		return true
	}
	var done bool
	found, err := m.bindings.ReadState(core, presetKey(), &done)
	if err != nil {
		m.log.Error("reading preset status", logger.Error(err))
		return false
	}
	return found && done
}

/*
PresetBalances performs the one-time migration of existing ledger balances
into the module's identity aggregates. Only possible before the core is
bound; the preset is permanently closed for the binding's epoch once bound.
*/
func (m *BalanceCapModule) PresetBalances(core types.CoreID, presets []BalancePreset) error {
	if m.bindings.IsBound(core) {
		return ErrPresetClosed
	}
	for _, p := range presets {
		id := identity.Resolve(m.registry, p.Wallet)
		balance, err := m.identityBalance(core, id)
		if err != nil {
			return err
		}
		sum, err := util.AddUint64(balance, p.Balance)
		if err != nil {
			return fmt.Errorf("aggregating preset balance of %s: %w", p.Wallet, err)
		}
		if err := m.bindings.WriteState(core, identityBalanceKey(id), sum); err != nil {
			return err
		}
	}
	return m.bindings.WriteState(core, presetKey(), true)
}

func (m *BalanceCapModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	switch cmd.Name {
	case CmdSetBalanceCap:
		var p CapParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.WriteState(core, capKey(), p.Cap)
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *BalanceCapModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, _, to types.Address, amount uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	if to.IsZero() {
		return true
	}
	var maxBalance uint64
	if _, err := m.bindings.ReadState(core, capKey(), &maxBalance); err != nil {
		m.log.Error("reading balance cap", logger.Error(err))
		return false
	}
	id := identity.Resolve(m.registry, to)
	balance, err := m.identityBalance(core, id)
	if err != nil {
		m.log.Error("reading identity balance", logger.Error(err))
		return false
	}
	post, err := util.AddUint64(balance, amount)
	if err != nil {
		return false
	}
	return post <= maxBalance
}

func (m *BalanceCapModule) TransferAction(_ compliance.ExecutionContext, core types.CoreID, from, to types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	if err := m.subBalance(core, from, amount); err != nil {
		return err
	}
	return m.addBalance(core, to, amount)
}

func (m *BalanceCapModule) MintAction(_ compliance.ExecutionContext, core types.CoreID, to types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	return m.addBalance(core, to, amount)
}

func (m *BalanceCapModule) BurnAction(_ compliance.ExecutionContext, core types.CoreID, from types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	return m.subBalance(core, from, amount)
}

func (m *BalanceCapModule) addBalance(core types.CoreID, wallet types.Address, amount uint64) error {
	id := identity.Resolve(m.registry, wallet)
	balance, err := m.identityBalance(core, id)
	if err != nil {
		return err
	}
	sum, err := util.AddUint64(balance, amount)
	if err != nil {
		return fmt.Errorf("aggregating identity balance of %s: %w", id, err)
	}
	return m.bindings.WriteState(core, identityBalanceKey(id), sum)
}

func (m *BalanceCapModule) subBalance(core types.CoreID, wallet types.Address, amount uint64) error {
	id := identity.Resolve(m.registry, wallet)
	balance, err := m.identityBalance(core, id)
	if err != nil {
		return err
	}
	if amount > balance {
		// would only happen when an action hook ran without a matching
		// preceding operation - a fatal integration bug
		return fmt.Errorf("identity balance of %s underflows: have %d, deduct %d", id, balance, amount)
	}
	return m.bindings.WriteState(core, identityBalanceKey(id), balance-amount)
}

func (m *BalanceCapModule) identityBalance(core types.CoreID, id types.Address) (uint64, error) {
	var balance uint64
	if _, err := m.bindings.ReadState(core, identityBalanceKey(id), &balance); err != nil {
		return 0, fmt.Errorf("reading identity balance: %w", err)
	}
	return balance, nil
}

func capKey() []byte { return []byte("cap") }

func presetKey() []byte { return []byte("preset") }

func identityBalanceKey(id types.Address) []byte {
	return append([]byte("idbal:"), id...)
}
