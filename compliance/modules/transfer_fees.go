package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/ledger"
	"github.com/tokengate-org/tokengate/types"
)

const (
	TransferFeesModuleName = "transfer-fees"

	CmdSetFee = "set-fee"

	// fee rates are expressed in basis points out of this denominator
	feeDenominator = 10000
)

type (
	// FeeParams is the parameter payload of the set-fee command.
	FeeParams struct {
		_         struct{} `cbor:",toarray"`
		RateBps   uint32
		Collector types.Address
	}

	feeConfig struct {
		_         struct{} `cbor:",toarray"`
		RateBps   uint32
		Collector types.Address
	}
)

/*
TransferFeesModule never blocks a transfer; after a transfer commits it
redirects floor(amount*rate/10000) from the recipient to the configured
collector. Moving the fee needs privileged write access to the ledger,
which the ledger grants by handing the module operator status and a Mover.
*/
type TransferFeesModule struct {
	moduleBase
	registry identity.Registry
	mover    ledger.Mover
}

var _ compliance.Module = (*TransferFeesModule)(nil)

func NewTransferFeesModule(opts ...Option) (*TransferFeesModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if options.mover == nil {
		return nil, fmt.Errorf("ledger mover is required")
	}
	base, err := newModuleBase(TransferFeesModuleName, false, options)
	if err != nil {
		return nil, err
	}
	return &TransferFeesModule{moduleBase: base, registry: options.registry, mover: options.mover}, nil
}

func (m *TransferFeesModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	switch cmd.Name {
	case CmdSetFee:
		var p FeeParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		if p.RateBps > feeDenominator {
			return fmt.Errorf("%w: %d", ErrFeeRateOutOfRange, p.RateBps)
		}
		if p.Collector.IsZero() || !m.registry.IsVerified(p.Collector) {
			return fmt.Errorf("%w: %s", ErrIneligibleCollector, p.Collector)
		}
		return m.bindings.WriteState(core, feeKey(), feeConfig{RateBps: p.RateBps, Collector: p.Collector})
	default:
		return m.unknownCommand(cmd)
	}
}

// ModuleCheck always passes, fee extraction never blocks an operation.
func (m *TransferFeesModule) ModuleCheck(compliance.ExecutionContext, types.CoreID, types.Address, types.Address, uint64) bool {
	return true
}

func (m *TransferFeesModule) TransferAction(_ compliance.ExecutionContext, core types.CoreID, from, to types.Address, amount uint64) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	var cfg feeConfig
	found, err := m.bindings.ReadState(core, feeKey(), &cfg)
	if err != nil {
		return fmt.Errorf("reading fee configuration: %w", err)
	}
	if !found || cfg.RateBps == 0 {
		return nil
	}
	if from.IsZero() || to.IsZero() {
		return nil
	}
	if from.Eq(cfg.Collector) || to.Eq(cfg.Collector) {
		return nil
	}
	if identity.Resolve(m.registry, from).Eq(identity.Resolve(m.registry, to)) {
		return nil
	}
	fee := feeOf(amount, cfg.RateBps)
	if fee == 0 {
		return nil
	}
	if err := m.mover.ForcedTransfer(to, cfg.Collector, fee); err != nil {
		return fmt.Errorf("collecting fee of %d: %w", fee, err)
	}
	return nil
}

// feeOf computes floor(amount*rate/10000) without intermediate overflow.
func feeOf(amount uint64, rateBps uint32) uint64 {
	rate := uint64(rateBps)
	return (amount/feeDenominator)*rate + (amount%feeDenominator)*rate/feeDenominator
}

func feeKey() []byte { return []byte("fee") }
