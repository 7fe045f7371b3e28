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
	TransferLimitsModuleName = "transfer-limits"

	CmdSetTimeTransferLimit    = "set-time-transfer-limit"
	CmdRemoveTimeTransferLimit = "remove-time-transfer-limit"

	// at most this many concurrent window lengths per binding
	maxLimitWindows = 4
)

type (
	// TimeLimitParams is the parameter payload of the velocity limit
	// commands.
	TimeLimitParams struct {
		_             struct{} `cbor:",toarray"`
		WindowSeconds uint64
		Limit         uint64
	}

	transferLimit struct {
		_      struct{} `cbor:",toarray"`
		Window uint64
		Limit  uint64
	}

	windowCounter struct {
		_         struct{} `cbor:",toarray"`
		Value     uint64
		WindowEnd uint64
	}
)

/*
TransferLimitsModule enforces rolling time-window velocity limits on the
sender's identity. Checks simulate the post-transfer counter value without
persisting it; the counters are persisted only by the transfer action hook,
so repeated checks against the same pending operation observe consistent
state.
*/
type TransferLimitsModule struct {
	moduleBase
	registry    identity.Registry
	ledgerState ledger.StateReader
}

var _ compliance.Module = (*TransferLimitsModule)(nil)

func NewTransferLimitsModule(opts ...Option) (*TransferLimitsModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if options.ledgerState == nil {
		return nil, fmt.Errorf("ledger state reader is required")
	}
	base, err := newModuleBase(TransferLimitsModuleName, false, options)
	if err != nil {
		return nil, err
	}
	return &TransferLimitsModule{moduleBase: base, registry: options.registry, ledgerState: options.ledgerState}, nil
}

func (m *TransferLimitsModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	var p TimeLimitParams
	switch cmd.Name {
	case CmdSetTimeTransferLimit:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		limits, err := m.limits(core, limitsKey())
		if err != nil {
			return err
		}
		limits, err = upsertLimit(limits, p.WindowSeconds, p.Limit)
		if err != nil {
			return err
		}
		return m.bindings.WriteState(core, limitsKey(), limits)
	case CmdRemoveTimeTransferLimit:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		limits, err := m.limits(core, limitsKey())
		if err != nil {
			return err
		}
		return m.bindings.WriteState(core, limitsKey(), removeLimit(limits, p.WindowSeconds))
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *TransferLimitsModule) ModuleCheck(exeCtx compliance.ExecutionContext, core types.CoreID, from, _ types.Address, amount uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	// issuance has no sender velocity; ledger operators are exempt
	if from.IsZero() || m.ledgerState.IsOperator(from) {
		return true
	}
	limits, err := m.limits(core, limitsKey())
	if err != nil {
		m.log.Error("reading limit table", logger.Error(err))
		return false
	}
	id := identity.Resolve(m.registry, from)
	now := exeCtx.CurrentTime()
	for _, limit := range limits {
		ctr, err := m.counter(core, counterKey(id, limit.Window))
		if err != nil {
			m.log.Error("reading window counter", logger.Error(err))
			return false
		}
		simulated, err := simulateWindow(ctr, now, amount)
		if err != nil || simulated > limit.Limit {
			return false
		}
	}
	return true
}

func (m *TransferLimitsModule) TransferAction(exeCtx compliance.ExecutionContext, core types.CoreID, from, _ types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	// mirror the check exemptions so counters and checks stay consistent
	if from.IsZero() || m.ledgerState.IsOperator(from) {
		return nil
	}
	limits, err := m.limits(core, limitsKey())
	if err != nil {
		return err
	}
	id := identity.Resolve(m.registry, from)
	now := exeCtx.CurrentTime()
	for _, limit := range limits {
		key := counterKey(id, limit.Window)
		ctr, err := m.counter(core, key)
		if err != nil {
			return err
		}
		if err := m.bindings.WriteState(core, key, rollWindow(ctr, now, limit.Window, amount)); err != nil {
			return err
		}
	}
	return nil
}

func (m *TransferLimitsModule) limits(core types.CoreID, key []byte) ([]transferLimit, error) {
	var limits []transferLimit
	if _, err := m.bindings.ReadState(core, key, &limits); err != nil {
		return nil, fmt.Errorf("reading limit table: %w", err)
	}
	return limits, nil
}

func (m *TransferLimitsModule) counter(core types.CoreID, key []byte) (windowCounter, error) {
	var ctr windowCounter
	if _, err := m.bindings.ReadState(core, key, &ctr); err != nil {
		return windowCounter{}, fmt.Errorf("reading window counter: %w", err)
	}
	return ctr, nil
}

/*
simulateWindow computes the counter value the pending transfer would
produce without persisting anything: expired windows restart from the
transfer amount, live windows accumulate.
*/
func simulateWindow(ctr windowCounter, now, amount uint64) (uint64, error) {
	if now > ctr.WindowEnd {
		return amount, nil
	}
	return util.AddUint64(ctr.Value, amount)
}

// rollWindow is the persisting counterpart of simulateWindow.
func rollWindow(ctr windowCounter, now, window, amount uint64) windowCounter {
	if now > ctr.WindowEnd {
		return windowCounter{Value: amount, WindowEnd: now + window}
	}
	ctr.Value += amount
	return ctr
}

func upsertLimit(limits []transferLimit, window, value uint64) ([]transferLimit, error) {
	if window == 0 {
		return nil, fmt.Errorf("limit window length must not be zero")
	}
	for i, l := range limits {
		if l.Window == window {
			limits[i].Limit = value
			return limits, nil
		}
	}
	if len(limits) >= maxLimitWindows {
		return nil, fmt.Errorf("%w: %d windows", ErrTooManyLimits, maxLimitWindows)
	}
	return append(limits, transferLimit{Window: window, Limit: value}), nil
}

func removeLimit(limits []transferLimit, window uint64) []transferLimit {
	for i, l := range limits {
		if l.Window == window {
			return append(limits[:i], limits[i+1:]...)
		}
	}
	return limits
}

func limitsKey() []byte { return []byte("limits") }

func counterKey(id types.Address, window uint64) []byte {
	key := append([]byte("ctr:"), id...)
	return append(key, util.Uint64ToBytes(window)...)
}
