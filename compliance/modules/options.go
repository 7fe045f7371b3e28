package modules

import (
	"log/slog"

	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/keyvaluedb"
	"github.com/tokengate-org/tokengate/keyvaluedb/memorydb"
	"github.com/tokengate-org/tokengate/ledger"
)

type (
	Options struct {
		db          keyvaluedb.KeyValueDB
		registry    identity.Registry
		ledgerState ledger.StateReader
		mover       ledger.Mover
		log         *slog.Logger
	}

	Option func(*Options)
)

func defaultOptions() *Options {
	return &Options{
		db:  memorydb.New(),
		log: slog.Default(),
	}
}

// WithDB assigns the storage the module persists binding state into.
// Defaults to an in-memory store.
func WithDB(db keyvaluedb.KeyValueDB) Option {
	return func(o *Options) {
		o.db = db
	}
}

// WithRegistry assigns the identity/claim registry collaborator.
func WithRegistry(registry identity.Registry) Option {
	return func(o *Options) {
		o.registry = registry
	}
}

// WithLedgerState assigns the read-only view of the asset ledger.
func WithLedgerState(state ledger.StateReader) Option {
	return func(o *Options) {
		o.ledgerState = state
	}
}

// WithMover assigns the privileged value-moving capability (fee module).
func WithMover(mover ledger.Mover) Option {
	return func(o *Options) {
		o.mover = mover
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *Options) {
		o.log = log
	}
}

func optionsOf(opts []Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
