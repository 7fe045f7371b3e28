/*
Package binding implements the bookkeeping each rule module keeps about the
compliance cores it is bound to. Per-binding state is addressed by the
(module, core, epoch) triple; unbinding bumps the epoch so that all state
written under the previous epoch becomes unreachable without a clearing
pass. Clearing would be unbounded work proportional to accumulated state,
the epoch bump is O(1).
*/
package binding

import (
	"errors"
	"fmt"

	"github.com/tokengate-org/tokengate/keyvaluedb"
	"github.com/tokengate-org/tokengate/types"
	"github.com/tokengate-org/tokengate/util"
)

var (
	// ErrNotBound is the authorization error for mutating module entry
	// points invoked by a core that is not bound in the current epoch.
	ErrNotBound = errors.New("caller is not the bound compliance core")

	// ErrAlreadyBound rejects double binding of the same core.
	ErrAlreadyBound = errors.New("core is already bound")
)

const (
	tagRecord byte = 0x00
	tagState  byte = 0x01
)

type (
	// Ledger is one module's binding ledger. Many modules may share a
	// single KeyValueDB, the module identifier namespaces the keys.
	Ledger struct {
		moduleID string
		db       keyvaluedb.KeyValueDB
	}

	record struct {
		_     struct{} `cbor:",toarray"`
		Bound bool
		Epoch uint64
	}
)

func NewLedger(moduleID string, db keyvaluedb.KeyValueDB) (*Ledger, error) {
	if moduleID == "" {
		return nil, fmt.Errorf("module identifier must be assigned")
	}
	if db == nil {
		return nil, fmt.Errorf("storage must be assigned")
	}
	return &Ledger{moduleID: moduleID, db: db}, nil
}

// Bind marks the core as bound. The epoch is left untouched so that state
// written before binding (balance-cap preset) stays reachable.
func (l *Ledger) Bind(core types.CoreID) error {
	rec, err := l.record(core)
	if err != nil {
		return err
	}
	if rec.Bound {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, core)
	}
	rec.Bound = true
	return l.writeRecord(core, rec)
}

/*
Unbind clears the bound flag and increments the binding epoch exactly once.
All state keys of the previous epoch are orphaned, never erased; they can
be garbage-collected lazily or never without correctness risk.
*/
func (l *Ledger) Unbind(core types.CoreID) error {
	rec, err := l.record(core)
	if err != nil {
		return err
	}
	if !rec.Bound {
		return fmt.Errorf("%w: %s", ErrNotBound, core)
	}
	rec.Bound = false
	rec.Epoch++
	return l.writeRecord(core, rec)
}

func (l *Ledger) IsBound(core types.CoreID) bool {
	rec, err := l.record(core)
	return err == nil && rec.Bound
}

// Epoch returns the current binding epoch of the core.
func (l *Ledger) Epoch(core types.CoreID) (uint64, error) {
	rec, err := l.record(core)
	return rec.Epoch, err
}

// RequireBound is the authorization gate of mutating module entry points.
func (l *Ledger) RequireBound(core types.CoreID) error {
	rec, err := l.record(core)
	if err != nil {
		return err
	}
	if !rec.Bound {
		return fmt.Errorf("%w: %s", ErrNotBound, core)
	}
	return nil
}

/*
ReadState reads a per-binding state value. The key is implicitly scoped by
the core's current epoch: after unbind+rebind reads observe fresh-state
defaults even though the old entries still exist.
*/
func (l *Ledger) ReadState(core types.CoreID, subkey []byte, v any) (bool, error) {
	key, err := l.stateKey(core, subkey)
	if err != nil {
		return false, err
	}
	return l.db.Read(key, v)
}

// WriteState writes a per-binding state value under the current epoch.
// Callers gate mutating entry points with RequireBound; WriteState itself
// stays ungated so that pre-binding presets can seed state for the epoch
// the next Bind will expose.
func (l *Ledger) WriteState(core types.CoreID, subkey []byte, v any) error {
	key, err := l.stateKey(core, subkey)
	if err != nil {
		return err
	}
	return l.db.Write(key, v)
}

func (l *Ledger) DeleteState(core types.CoreID, subkey []byte) error {
	key, err := l.stateKey(core, subkey)
	if err != nil {
		return err
	}
	return l.db.Delete(key)
}

func (l *Ledger) record(core types.CoreID) (record, error) {
	var rec record
	if _, err := l.db.Read(l.recordKey(core), &rec); err != nil {
		return record{}, fmt.Errorf("reading binding record: %w", err)
	}
	return rec, nil
}

func (l *Ledger) writeRecord(core types.CoreID, rec record) error {
	if err := l.db.Write(l.recordKey(core), rec); err != nil {
		return fmt.Errorf("writing binding record: %w", err)
	}
	return nil
}

// recordKey is moduleID|tag|core, stateKey additionally epoch|subkey. The
// variable-length parts are length-prefixed so distinct triples can never
// produce the same key bytes.
func (l *Ledger) recordKey(core types.CoreID) []byte {
	key := appendLenPrefixed(nil, []byte(l.moduleID))
	key = append(key, tagRecord)
	return appendLenPrefixed(key, core)
}

func (l *Ledger) stateKey(core types.CoreID, subkey []byte) ([]byte, error) {
	rec, err := l.record(core)
	if err != nil {
		return nil, err
	}
	key := appendLenPrefixed(nil, []byte(l.moduleID))
	key = append(key, tagState)
	key = appendLenPrefixed(key, core)
	key = append(key, util.Uint64ToBytes(rec.Epoch)...)
	return append(key, subkey...), nil
}

func appendLenPrefixed(dst, part []byte) []byte {
	dst = append(dst, byte(len(part)))
	return append(dst, part...)
}
