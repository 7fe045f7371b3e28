package logger

import (
	"log/slog"

	"github.com/tokengate-org/tokengate/types"
)

/*
Log attribute key values. Generally shouldn't be used directly, use the
appropriate "attribute constructor function" instead.

Only define names here if they are common for multiple packages, package
specific names should be defined in the package.
*/
const (
	ModuleKey = "module"
	CoreKey   = "core"
	ErrorKey  = "err"
	RoundKey  = "round"
	DataKey   = "data"
)

/*
Error adds error to the log

	if err := f(); err != nil {
		log.Error("calling f", logger.Error(err))
	}
*/
func Error(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// Module adds the rule module name field.
func Module(name string) slog.Attr {
	return slog.String(ModuleKey, name)
}

/*
Core adds the compliance core identifier field.

Use with logger.With() to create a sub-logger for the core rather than
adding the attribute to individual logging calls.
*/
func Core(id types.CoreID) slog.Attr {
	return slog.String(CoreKey, id.String())
}

// Round adds the ledger round number field.
func Round(round uint64) slog.Attr {
	return slog.Uint64(RoundKey, round)
}

// Data adds an additional data field to the message.
func Data(data any) slog.Attr {
	return slog.Any(DataKey, data)
}
