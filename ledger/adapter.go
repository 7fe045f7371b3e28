package ledger

import (
	"errors"
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/types"
)

// ErrOperationRefused is the business-rule rejection: not an internal
// error, the ledger translates it into refusing the operation.
var ErrOperationRefused = errors.New("operation refused by compliance")

type (
	/*
		Adapter is the call path the asset ledger uses to invoke the
		compliance core around a balance-changing operation: check before
		the mutation, commit, then the matching action notification, all
		as one serial unit of work.
	*/
	Adapter struct {
		core   *compliance.Core
		ledger *MemoryLedger
		now    func() uint64
		round  uint64
	}

	// opContext carries the single observation of time/round that both
	// the check and the action hooks of one operation see.
	opContext struct {
		time  uint64
		round uint64
	}
)

func (c opContext) CurrentTime() uint64 { return c.time }

func (c opContext) CurrentRound() uint64 { return c.round }

// NewAdapter wires the core to the ledger. The core must already be bound
// to this ledger instance; now supplies the operation timestamps.
func NewAdapter(core *compliance.Core, l *MemoryLedger, now func() uint64) (*Adapter, error) {
	if core == nil || l == nil {
		return nil, fmt.Errorf("core and ledger must be assigned")
	}
	if now == nil {
		return nil, fmt.Errorf("time source must be assigned")
	}
	if !core.LedgerID().Eq(l.ID()) {
		return nil, fmt.Errorf("core is bound to ledger %s, not to %s", core.LedgerID(), l.ID())
	}
	return &Adapter{core: core, ledger: l, now: now}, nil
}

// BeginRound advances the ledger round the subsequent operations report.
func (a *Adapter) BeginRound(round uint64) { a.round = round }

func (a *Adapter) Ledger() *MemoryLedger { return a.ledger }

// Transfer gates and commits a regular transfer.
func (a *Adapter) Transfer(from, to types.Address, amount uint64) error {
	exeCtx := opContext{time: a.now(), round: a.round}
	if !a.core.CheckTransfer(exeCtx, from, to, amount) {
		return fmt.Errorf("%w: transfer of %d from %s to %s", ErrOperationRefused, amount, from, to)
	}
	if err := a.ledger.commitTransfer(from, to, amount); err != nil {
		return fmt.Errorf("committing transfer: %w", err)
	}
	if err := a.core.NotifyTransfer(exeCtx, from, to, amount); err != nil {
		return fmt.Errorf("transfer committed but compliance notification failed: %w", err)
	}
	return nil
}

// Mint gates and commits an issuance; the sender side of the check is the
// null counterparty.
func (a *Adapter) Mint(to types.Address, amount uint64) error {
	exeCtx := opContext{time: a.now(), round: a.round}
	if !a.core.CheckTransfer(exeCtx, nil, to, amount) {
		return fmt.Errorf("%w: issuance of %d to %s", ErrOperationRefused, amount, to)
	}
	if err := a.ledger.commitMint(to, amount); err != nil {
		return fmt.Errorf("committing issuance: %w", err)
	}
	if err := a.core.NotifyMint(exeCtx, to, amount); err != nil {
		return fmt.Errorf("issuance committed but compliance notification failed: %w", err)
	}
	return nil
}

// Burn gates and commits a redemption; the recipient side of the check is
// the null counterparty.
func (a *Adapter) Burn(from types.Address, amount uint64) error {
	exeCtx := opContext{time: a.now(), round: a.round}
	if !a.core.CheckTransfer(exeCtx, from, nil, amount) {
		return fmt.Errorf("%w: redemption of %d from %s", ErrOperationRefused, amount, from)
	}
	if err := a.ledger.commitBurn(from, amount); err != nil {
		return fmt.Errorf("committing redemption: %w", err)
	}
	if err := a.core.NotifyBurn(exeCtx, from, amount); err != nil {
		return fmt.Errorf("redemption committed but compliance notification failed: %w", err)
	}
	return nil
}

// CheckTransfer exposes a dry-run check with the adapter's current time,
// used by the read API.
func (a *Adapter) CheckTransfer(from, to types.Address, amount uint64) bool {
	return a.core.CheckTransfer(opContext{time: a.now(), round: a.round}, from, to, amount)
}
