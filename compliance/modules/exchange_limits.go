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
	ExchangeLimitsModuleName = "exchange-limits"

	CmdTagExchange                 = "tag-exchange"
	CmdUntagExchange               = "untag-exchange"
	CmdSetExchangeTransferLimit    = "set-exchange-transfer-limit"
	CmdRemoveExchangeTransferLimit = "remove-exchange-transfer-limit"
)

type (
	// ExchangeTagParams is the parameter payload of the exchange tagging
	// commands.
	ExchangeTagParams struct {
		_        struct{} `cbor:",toarray"`
		Identity types.Address
	}

	// ExchangeLimitParams is the parameter payload of the exchange limit
	// commands.
	ExchangeLimitParams struct {
		_             struct{} `cbor:",toarray"`
		Exchange      types.Address
		WindowSeconds uint64
		Limit         uint64
	}
)

/*
ExchangeLimitsModule enforces rolling time-window deposit limits towards
identities tagged as exchanges, counted per (exchange, investor) pair.
Ledger operators and exchange-to-exchange flows are exempt, the latter to
prevent double counting.
*/
type ExchangeLimitsModule struct {
	moduleBase
	registry    identity.Registry
	ledgerState ledger.StateReader
}

var _ compliance.Module = (*ExchangeLimitsModule)(nil)

func NewExchangeLimitsModule(opts ...Option) (*ExchangeLimitsModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if options.ledgerState == nil {
		return nil, fmt.Errorf("ledger state reader is required")
	}
	base, err := newModuleBase(ExchangeLimitsModuleName, false, options)
	if err != nil {
		return nil, err
	}
	return &ExchangeLimitsModule{moduleBase: base, registry: options.registry, ledgerState: options.ledgerState}, nil
}

func (m *ExchangeLimitsModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	switch cmd.Name {
	case CmdTagExchange:
		var p ExchangeTagParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.WriteState(core, exchangeTagKey(p.Identity), true)
	case CmdUntagExchange:
		var p ExchangeTagParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.DeleteState(core, exchangeTagKey(p.Identity))
	case CmdSetExchangeTransferLimit:
		var p ExchangeLimitParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		limits, err := m.limits(core, p.Exchange)
		if err != nil {
			return err
		}
		limits, err = upsertLimit(limits, p.WindowSeconds, p.Limit)
		if err != nil {
			return err
		}
		return m.bindings.WriteState(core, exchangeLimitsKey(p.Exchange), limits)
	case CmdRemoveExchangeTransferLimit:
		var p ExchangeLimitParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		limits, err := m.limits(core, p.Exchange)
		if err != nil {
			return err
		}
		return m.bindings.WriteState(core, exchangeLimitsKey(p.Exchange), removeLimit(limits, p.WindowSeconds))
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *ExchangeLimitsModule) ModuleCheck(exeCtx compliance.ExecutionContext, core types.CoreID, from, to types.Address, amount uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	if from.IsZero() || to.IsZero() {
		return true
	}
	exchange := identity.Resolve(m.registry, to)
	if !m.isExchange(core, exchange) {
		return true
	}
	if m.ledgerState.IsOperator(from) {
		return true
	}
	investor := identity.Resolve(m.registry, from)
	if m.isExchange(core, investor) {
		return true
	}
	limits, err := m.limits(core, exchange)
	if err != nil {
		m.log.Error("reading exchange limit table", logger.Error(err))
		return false
	}
	now := exeCtx.CurrentTime()
	for _, limit := range limits {
		ctr, err := m.counter(core, exchange, investor, limit.Window)
		if err != nil {
			m.log.Error("reading exchange window counter", logger.Error(err))
			return false
		}
		simulated, err := simulateWindow(ctr, now, amount)
		if err != nil || simulated > limit.Limit {
			return false
		}
	}
	return true
}

func (m *ExchangeLimitsModule) TransferAction(exeCtx compliance.ExecutionContext, core types.CoreID, from, to types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	if from.IsZero() || to.IsZero() {
		return nil
	}
	exchange := identity.Resolve(m.registry, to)
	if !m.isExchange(core, exchange) {
		return nil
	}
	if m.ledgerState.IsOperator(from) {
		return nil
	}
	investor := identity.Resolve(m.registry, from)
	if m.isExchange(core, investor) {
		return nil
	}
	limits, err := m.limits(core, exchange)
	if err != nil {
		return err
	}
	now := exeCtx.CurrentTime()
	for _, limit := range limits {
		key := exchangeCounterKey(exchange, investor, limit.Window)
		var ctr windowCounter
		if _, err := m.bindings.ReadState(core, key, &ctr); err != nil {
			return fmt.Errorf("reading exchange window counter: %w", err)
		}
		if err := m.bindings.WriteState(core, key, rollWindow(ctr, now, limit.Window, amount)); err != nil {
			return err
		}
	}
	return nil
}

func (m *ExchangeLimitsModule) isExchange(core types.CoreID, id types.Address) bool {
	var tagged bool
	found, err := m.bindings.ReadState(core, exchangeTagKey(id), &tagged)
	if err != nil {
		m.log.Error("reading exchange tag", logger.Error(err))
		return false
	}
	return found && tagged
}

func (m *ExchangeLimitsModule) limits(core types.CoreID, exchange types.Address) ([]transferLimit, error) {
	var limits []transferLimit
	if _, err := m.bindings.ReadState(core, exchangeLimitsKey(exchange), &limits); err != nil {
		return nil, fmt.Errorf("reading exchange limit table: %w", err)
	}
	return limits, nil
}

func (m *ExchangeLimitsModule) counter(core types.CoreID, exchange, investor types.Address, window uint64) (windowCounter, error) {
	var ctr windowCounter
	if _, err := m.bindings.ReadState(core, exchangeCounterKey(exchange, investor, window), &ctr); err != nil {
		return windowCounter{}, err
	}
	return ctr, nil
}

func exchangeTagKey(id types.Address) []byte {
	return append([]byte("xtag:"), id...)
}

func exchangeLimitsKey(exchange types.Address) []byte {
	return append([]byte("xlim:"), exchange...)
}

func exchangeCounterKey(exchange, investor types.Address, window uint64) []byte {
	key := append([]byte("xctr:"), byte(len(exchange)))
	key = append(key, exchange...)
	key = append(key, investor...)
	return append(key, util.Uint64ToBytes(window)...)
}
