package types

import (
	"bytes"
	"encoding/hex"
)

type (
	// CoreID identifies one compliance core instance. Modules key their
	// per-binding state by it.
	CoreID []byte

	// LedgerID identifies the asset ledger instance a core is bound to.
	LedgerID []byte
)

func (id CoreID) Eq(other CoreID) bool { return bytes.Equal(id, other) }

func (id CoreID) String() string { return hex.EncodeToString(id) }

func (id LedgerID) Eq(other LedgerID) bool { return bytes.Equal(id, other) }

func (id LedgerID) IsZero() bool { return len(id) == 0 }

func (id LedgerID) String() string { return hex.EncodeToString(id) }
