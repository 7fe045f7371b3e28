package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/metric"

	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/observability"
	"github.com/tokengate-org/tokengate/types"
)

type Observability interface {
	Meter(name string, opts ...metric.MeterOption) metric.Meter
	Logger() *slog.Logger
}

/*
Core owns the ordered set of rule modules bound to one asset ledger
instance. It aggregates module check decisions (unanimous approval) and
dispatches lifecycle and action events; it never parses module
configuration payloads and never touches module-private state.
*/
type Core struct {
	id       types.CoreID
	owner    types.Address
	ledgerID types.LedgerID
	modules  []Module
	log      *slog.Logger

	checksDone  metric.Int64Counter
	actionsDone metric.Int64Counter
}

func NewCore(id types.CoreID, owner types.Address, observe Observability) (*Core, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("core ID must be assigned")
	}
	if owner.IsZero() {
		return nil, fmt.Errorf("core owner must be assigned")
	}
	c := &Core{
		id:    id,
		owner: owner,
		log:   observe.Logger().With(logger.Core(id)),
	}
	if err := c.initMetrics(observe.Meter("compliance")); err != nil {
		return nil, fmt.Errorf("initializing metrics: %w", err)
	}
	return c, nil
}

func (c *Core) ID() types.CoreID { return c.id }

func (c *Core) Owner() types.Address { return c.owner }

// LedgerID returns the bound ledger identifier, empty until BindLedger.
func (c *Core) LedgerID() types.LedgerID { return c.ledgerID }

// Modules returns the bound modules in evaluation order.
func (c *Core) Modules() []Module {
	mods := make([]Module, len(c.modules))
	copy(mods, c.modules)
	return mods
}

// BindLedger assigns the asset ledger this core serves. Set once.
func (c *Core) BindLedger(caller types.Address, ledgerID types.LedgerID) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if ledgerID.IsZero() {
		return ErrInvalidLedgerID
	}
	if !c.ledgerID.IsZero() {
		return ErrLedgerAlreadyBound
	}
	c.ledgerID = ledgerID
	c.log.Info("ledger bound", slog.String("ledger", ledgerID.String()))
	return nil
}

// TransferOwnership assigns a new core owner.
func (c *Core) TransferOwnership(caller, newOwner types.Address) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("new owner must not be the zero address")
	}
	c.owner = newOwner
	return nil
}

/*
AddModule appends the module to the evaluation order. Fails when the module
is already present or when the module vetoes the binding via CanBind.
*/
func (c *Core) AddModule(caller types.Address, module Module) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if c.moduleIndex(module.Name()) >= 0 {
		return fmt.Errorf("%w: %s", ErrModuleAlreadyAdded, module.Name())
	}
	if !module.CanBind(c.id) {
		return fmt.Errorf("%w: %s", ErrModuleRefusedBinding, module.Name())
	}
	if err := module.BindNotify(c.id); err != nil {
		return fmt.Errorf("binding module %s: %w", module.Name(), err)
	}
	c.modules = append(c.modules, module)
	c.log.Info("module added", logger.Module(module.Name()))
	return nil
}

/*
RemoveModule removes the module, invoking its UnbindNotify hook which bumps
the module's binding epoch for this core.
*/
func (c *Core) RemoveModule(caller types.Address, name string) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	idx := c.moduleIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	module := c.modules[idx]
	if err := module.UnbindNotify(c.id); err != nil {
		return fmt.Errorf("unbinding module %s: %w", name, err)
	}
	c.modules = append(c.modules[:idx], c.modules[idx+1:]...)
	c.log.Info("module removed", logger.Module(name))
	return nil
}

/*
ConfigureModule forwards an opaque configuration payload to the named
module. The core does not interpret the payload; the module decodes and
validates its own commands.
*/
func (c *Core) ConfigureModule(caller types.Address, name string, payload []byte) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	idx := c.moduleIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	cmd, err := types.DecodeConfigCommand(payload)
	if err != nil {
		return err
	}
	if err := c.modules[idx].Configure(c.id, cmd); err != nil {
		return fmt.Errorf("configuring module %s: %w", name, err)
	}
	c.log.Debug("module configured", logger.Module(name), slog.String("command", cmd.Name))
	return nil
}

/*
CheckTransfer aggregates ModuleCheck over all bound modules: approved iff
every module approves. Pure, no state change. Evaluation short-circuits on
the first rejection; because checks are side-effect free this cannot change
the result.
*/
func (c *Core) CheckTransfer(exeCtx ExecutionContext, from, to types.Address, amount uint64) bool {
	for _, module := range c.modules {
		if !module.ModuleCheck(exeCtx, c.id, from, to, amount) {
			c.log.Debug("transfer check rejected", logger.Module(module.Name()),
				slog.String("from", from.String()), slog.String("to", to.String()), slog.Uint64("amount", amount))
			c.countCheck(false)
			return false
		}
	}
	c.countCheck(true)
	return true
}

/*
NotifyTransfer forwards the committed transfer to every bound module's
transfer action hook, in module-list order. A hook failure is a core-level
integration error, never a business rejection, and is returned to the
caller as such.
*/
func (c *Core) NotifyTransfer(exeCtx ExecutionContext, from, to types.Address, amount uint64) error {
	for _, module := range c.modules {
		if err := module.TransferAction(exeCtx, c.id, from, to, amount); err != nil {
			return c.hookFailure(module, "transfer", err)
		}
	}
	c.countAction("transfer")
	return nil
}

// NotifyMint forwards the committed issuance to every bound module.
func (c *Core) NotifyMint(exeCtx ExecutionContext, to types.Address, amount uint64) error {
	for _, module := range c.modules {
		if err := module.MintAction(exeCtx, c.id, to, amount); err != nil {
			return c.hookFailure(module, "mint", err)
		}
	}
	c.countAction("mint")
	return nil
}

// NotifyBurn forwards the committed redemption to every bound module.
func (c *Core) NotifyBurn(exeCtx ExecutionContext, from types.Address, amount uint64) error {
	for _, module := range c.modules {
		if err := module.BurnAction(exeCtx, c.id, from, amount); err != nil {
			return c.hookFailure(module, "burn", err)
		}
	}
	c.countAction("burn")
	return nil
}

func (c *Core) hookFailure(module Module, action string, err error) error {
	err = fmt.Errorf("module %s %s action hook: %w", module.Name(), action, err)
	c.log.Error("action hook failed on committed operation", logger.Error(err), logger.Module(module.Name()))
	return err
}

func (c *Core) requireOwner(caller types.Address) error {
	if !caller.Eq(c.owner) {
		return ErrNotOwner
	}
	return nil
}

func (c *Core) moduleIndex(name string) int {
	return slices.IndexFunc(c.modules, func(m Module) bool { return m.Name() == name })
}

func (c *Core) initMetrics(mtr metric.Meter) (err error) {
	if c.checksDone, err = mtr.Int64Counter(
		"check.count",
		metric.WithDescription("Number of transfer checks evaluated by the core."),
		metric.WithUnit("{check}"),
	); err != nil {
		return fmt.Errorf("creating check counter: %w", err)
	}
	if c.actionsDone, err = mtr.Int64Counter(
		"action.count",
		metric.WithDescription("Number of post-commit actions dispatched to modules."),
		metric.WithUnit("{action}"),
	); err != nil {
		return fmt.Errorf("creating action counter: %w", err)
	}
	return nil
}

func (c *Core) countCheck(approved bool) {
	c.checksDone.Add(context.Background(), 1,
		metric.WithAttributes(observability.Core(c.id), observability.Decision(approved)))
}

func (c *Core) countAction(kind string) {
	c.actionsDone.Add(context.Background(), 1,
		metric.WithAttributes(observability.Core(c.id), observability.ActionKind(kind)))
}
