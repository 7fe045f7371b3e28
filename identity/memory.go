package identity

import (
	"sync"

	"github.com/tokengate-org/tokengate/types"
)

type record struct {
	identity types.Address
	country  uint16
}

// MemoryRegistry is an in-memory Registry implementation, used by tests and
// the standalone demo engine.
type MemoryRegistry struct {
	lock     sync.RWMutex
	accounts map[string]record
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{accounts: make(map[string]record)}
}

// Register records the account as verified, belonging to the given identity
// and jurisdiction. A zero identity registers the account as its own
// identity.
func (r *MemoryRegistry) Register(addr types.Address, id types.Address, country uint16) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if id.IsZero() {
		id = addr
	}
	r.accounts[addr.Key()] = record{identity: id, country: country}
}

func (r *MemoryRegistry) Remove(addr types.Address) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.accounts, addr.Key())
}

func (r *MemoryRegistry) IsVerified(addr types.Address) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.accounts[addr.Key()]
	return ok
}

func (r *MemoryRegistry) Jurisdiction(addr types.Address) (uint16, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	rec, ok := r.accounts[addr.Key()]
	return rec.country, ok
}

func (r *MemoryRegistry) Identity(addr types.Address) (types.Address, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	rec, ok := r.accounts[addr.Key()]
	return rec.identity, ok
}
