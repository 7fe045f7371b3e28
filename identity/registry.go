/*
Package identity specifies the boundary with the external identity/claim
verification registry. The compliance engine only ever reads from it.
*/
package identity

import "github.com/tokengate-org/tokengate/types"

type Registry interface {
	// IsVerified reports whether the account is an eligible/verified
	// counterparty.
	IsVerified(addr types.Address) bool

	// Jurisdiction returns the numeric country code of the account's
	// verified identity. ok is false when the account does not resolve
	// to an identity.
	Jurisdiction(addr types.Address) (code uint16, ok bool)

	// Identity returns the underlying verified identity the account
	// belongs to, for modules that aggregate across multiple accounts
	// controlled by the same real-world party.
	Identity(addr types.Address) (id types.Address, ok bool)
}

// Resolve maps the account to its underlying identity, falling back to the
// account itself when it does not resolve.
func Resolve(registry Registry, addr types.Address) types.Address {
	if id, ok := registry.Identity(addr); ok {
		return id
	}
	return addr
}
