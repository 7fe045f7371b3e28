/*
Package modules implements the rule module families of the compliance
engine. Every module keeps isolated per-binding state through a
binding.Ledger and gates its mutating entry points on the caller being the
bound core for the current epoch.
*/
package modules

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/compliance/binding"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
)

var (
	ErrUnknownCommand = errors.New("unknown configuration command")

	ErrFeeRateOutOfRange   = errors.New("fee rate exceeds the maximum of 10000 basis points")
	ErrIneligibleCollector = errors.New("fee collector must be a verified non-zero counterparty")
	ErrTooManyLimits       = errors.New("limit window table exceeds capacity")
	ErrPresetClosed        = errors.New("balance preset is closed once the core is bound")
)

/*
moduleBase carries what every rule module has: identification, the binding
ledger and a logger. Action hooks default to authorization-gated no-ops,
modules that track state override them.
*/
type moduleBase struct {
	name        string
	plugAndPlay bool
	bindings    *binding.Ledger
	log         *slog.Logger
}

func newModuleBase(name string, plugAndPlay bool, options *Options) (moduleBase, error) {
	bindings, err := binding.NewLedger(name, options.db)
	if err != nil {
		return moduleBase{}, fmt.Errorf("creating binding ledger: %w", err)
	}
	return moduleBase{
		name:        name,
		plugAndPlay: plugAndPlay,
		bindings:    bindings,
		log:         options.log.With(logger.Module(name)),
	}, nil
}

func (m *moduleBase) Name() string { return m.name }

func (m *moduleBase) PlugAndPlay() bool { return m.plugAndPlay }

func (m *moduleBase) CanBind(types.CoreID) bool { return true }

func (m *moduleBase) BindNotify(core types.CoreID) error {
	return m.bindings.Bind(core)
}

func (m *moduleBase) UnbindNotify(core types.CoreID) error {
	return m.bindings.Unbind(core)
}

func (m *moduleBase) TransferAction(_ compliance.ExecutionContext, core types.CoreID, _, _ types.Address, _ uint64) error {
	return m.bindings.RequireBound(core)
}

func (m *moduleBase) MintAction(_ compliance.ExecutionContext, core types.CoreID, _ types.Address, _ uint64) error {
	return m.bindings.RequireBound(core)
}

func (m *moduleBase) BurnAction(_ compliance.ExecutionContext, core types.CoreID, _ types.Address, _ uint64) error {
	return m.bindings.RequireBound(core)
}

func (m *moduleBase) unknownCommand(cmd types.ConfigCommand) error {
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
}
