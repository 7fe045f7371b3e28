package compliance

import (
	"github.com/tokengate-org/tokengate/types"
)

/*
ExecutionContext carries the facts of the enclosing ledger operation that
rule modules may consult. It is supplied by the ledger adapter; modules
never read the wall clock themselves so that check and action observe the
same instant.
*/
type ExecutionContext interface {
	// CurrentTime is the timestamp (unix seconds) of the enclosing ledger
	// operation.
	CurrentTime() uint64
	// CurrentRound is the ledger round/block the operation executes in.
	CurrentRound() uint64
}

/*
Module is the contract every rule module implements. A module can be bound
to many cores simultaneously and keeps isolated, epoch-scoped state per
binding.

All mutating entry points (Configure and the action hooks) must reject
callers that are not the bound core for the current epoch. ModuleCheck must
be a pure read and may be called in any state; an unbound module returns its
own default, commonly "pass".
*/
type Module interface {
	// Name is the stable human-readable module identifier.
	Name() string

	// PlugAndPlay reports whether the module can start enforcing without
	// any configuration.
	PlugAndPlay() bool

	// CanBind lets the module veto binding to the core.
	CanBind(coreID types.CoreID) bool

	// BindNotify is invoked by the core when the module is added.
	BindNotify(coreID types.CoreID) error

	// UnbindNotify is invoked by the core when the module is removed. It
	// bumps the binding epoch, invalidating all per-binding state.
	UnbindNotify(coreID types.CoreID) error

	// Configure handles a configuration command forwarded by the core.
	Configure(coreID types.CoreID, cmd types.ConfigCommand) error

	// ModuleCheck votes on the pending operation. Side-effect free.
	ModuleCheck(exeCtx ExecutionContext, coreID types.CoreID, from, to types.Address, amount uint64) bool

	// TransferAction, MintAction and BurnAction are the post-commit hooks
	// modules use to update counters and balances. They must not be able
	// to abort the already-committed ledger operation; a hook failure is
	// an integration error, not a business rejection.
	TransferAction(exeCtx ExecutionContext, coreID types.CoreID, from, to types.Address, amount uint64) error
	MintAction(exeCtx ExecutionContext, coreID types.CoreID, to types.Address, amount uint64) error
	BurnAction(exeCtx ExecutionContext, coreID types.CoreID, from types.Address, amount uint64) error
}
