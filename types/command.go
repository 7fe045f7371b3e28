package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

/*
ConfigCommand is the opaque configuration payload the compliance core
forwards to a module without interpreting it. Name selects the module's
command handler, Params is decoded by the module into its own typed
parameter struct.
*/
type ConfigCommand struct {
	_      struct{}        `cbor:",toarray"`
	Name   string          `json:"name"`
	Params cbor.RawMessage `json:"params"`
}

// NewConfigCommand encodes params and wraps them into a command envelope.
func NewConfigCommand(name string, params any) (ConfigCommand, error) {
	b, err := cbor.Marshal(params)
	if err != nil {
		return ConfigCommand{}, fmt.Errorf("encoding %q parameters: %w", name, err)
	}
	return ConfigCommand{Name: name, Params: b}, nil
}

// EncodeConfigCommand builds the serialized envelope callers hand to
// Core.ConfigureModule.
func EncodeConfigCommand(name string, params any) ([]byte, error) {
	cmd, err := NewConfigCommand(name, params)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(cmd)
}

// DecodeConfigCommand parses a serialized command envelope.
func DecodeConfigCommand(data []byte) (ConfigCommand, error) {
	var cmd ConfigCommand
	if err := cbor.Unmarshal(data, &cmd); err != nil {
		return ConfigCommand{}, fmt.Errorf("decoding config command: %w", err)
	}
	if cmd.Name == "" {
		return ConfigCommand{}, fmt.Errorf("config command must have a name")
	}
	return cmd, nil
}

// DecodeParams decodes the parameter payload of the command into dst.
func (c ConfigCommand) DecodeParams(dst any) error {
	if len(c.Params) == 0 {
		return fmt.Errorf("command %q has no parameters", c.Name)
	}
	if err := cbor.Unmarshal(c.Params, dst); err != nil {
		return fmt.Errorf("decoding %q parameters: %w", c.Name, err)
	}
	return nil
}
