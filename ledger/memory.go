package ledger

import (
	"fmt"
	"sync"

	"github.com/tokengate-org/tokengate/types"
)

/*
MemoryLedger is an in-memory asset ledger used by tests and the standalone
demo engine. It implements the StateReader and Mover interfaces of the
compliance boundary; the balance-changing entry points the adapter drives
live on the adapter so that the check→commit→notify protocol cannot be
bypassed.
*/
type MemoryLedger struct {
	lock      sync.RWMutex
	id        types.LedgerID
	balances  map[string]uint64
	frozen    map[string]uint64
	operators map[string]bool
	supply    uint64
}

var (
	_ StateReader = (*MemoryLedger)(nil)
	_ Mover       = (*MemoryLedger)(nil)
)

func NewMemoryLedger(id types.LedgerID) *MemoryLedger {
	return &MemoryLedger{
		id:        id,
		balances:  make(map[string]uint64),
		frozen:    make(map[string]uint64),
		operators: make(map[string]bool),
	}
}

func (l *MemoryLedger) ID() types.LedgerID { return l.id }

func (l *MemoryLedger) BalanceOf(addr types.Address) uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.balances[addr.Key()]
}

func (l *MemoryLedger) TotalSupply() uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.supply
}

func (l *MemoryLedger) FrozenOf(addr types.Address) uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.frozen[addr.Key()]
}

func (l *MemoryLedger) IsOperator(addr types.Address) bool {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.operators[addr.Key()]
}

// GrantOperator grants the ledger operator/agent role to the account.
func (l *MemoryLedger) GrantOperator(addr types.Address) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.operators[addr.Key()] = true
}

func (l *MemoryLedger) RevokeOperator(addr types.Address) {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.operators, addr.Key())
}

// SetFrozen marks the given amount of the account's balance as frozen.
func (l *MemoryLedger) SetFrozen(addr types.Address, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.frozen[addr.Key()] = amount
}

/*
ForcedTransfer moves value between accounts bypassing the compliance check
path. Only modules holding the operator role are handed this capability;
fee extraction uses it to redirect the fee to the collector after the
enclosing transfer has committed.
*/
func (l *MemoryLedger) ForcedTransfer(from, to types.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.move(from, to, amount)
}

func (l *MemoryLedger) commitTransfer(from, to types.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.move(from, to, amount)
}

func (l *MemoryLedger) commitMint(to types.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if to.IsZero() {
		return fmt.Errorf("mint recipient must not be the zero address")
	}
	l.balances[to.Key()] += amount
	l.supply += amount
	return nil
}

func (l *MemoryLedger) commitBurn(from types.Address, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if err := l.checkSpendable(from, amount); err != nil {
		return err
	}
	l.balances[from.Key()] -= amount
	l.supply -= amount
	return nil
}

func (l *MemoryLedger) move(from, to types.Address, amount uint64) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("transfer endpoints must not be the zero address")
	}
	if err := l.checkSpendable(from, amount); err != nil {
		return err
	}
	l.balances[from.Key()] -= amount
	l.balances[to.Key()] += amount
	return nil
}

func (l *MemoryLedger) checkSpendable(from types.Address, amount uint64) error {
	balance := l.balances[from.Key()]
	frozen := l.frozen[from.Key()]
	available := balance - min(frozen, balance)
	if amount > available {
		return fmt.Errorf("insufficient available balance: have %d (of which %d frozen), need %d", balance, frozen, amount)
	}
	return nil
}
