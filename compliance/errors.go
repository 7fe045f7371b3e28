package compliance

import "errors"

var (
	// authorization errors
	ErrNotOwner = errors.New("caller is not the core owner")

	// configuration errors
	ErrLedgerAlreadyBound   = errors.New("core is already bound to a ledger")
	ErrInvalidLedgerID      = errors.New("ledger identifier must not be empty")
	ErrModuleAlreadyAdded   = errors.New("module is already added to the core")
	ErrModuleNotFound       = errors.New("module is not added to the core")
	ErrModuleRefusedBinding = errors.New("module refused binding to the core")
)
