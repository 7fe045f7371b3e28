/*
Package ledger specifies the boundary with the external asset ledger and
provides the thin adapter the ledger uses to invoke the compliance core
around a balance-changing operation.
*/
package ledger

import "github.com/tokengate-org/tokengate/types"

// StateReader is the read-only view of ledger facts rule modules may query.
type StateReader interface {
	BalanceOf(addr types.Address) uint64
	TotalSupply() uint64
	// FrozenOf returns the amount of the account's balance that is frozen
	// and not available for transfer.
	FrozenOf(addr types.Address) uint64
	// IsOperator reports whether the account has been granted the ledger
	// operator/agent role. Granting the role is an external administrative
	// action.
	IsOperator(addr types.Address) bool
}

/*
Mover is the privileged write access some modules (fee extraction) need to
move value on the ledger. The ledger hands a Mover only to modules it has
granted the operator role to.
*/
type Mover interface {
	ForcedTransfer(from, to types.Address, amount uint64) error
}
