package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
	"github.com/tokengate-org/tokengate/util"
)

const (
	CountryAllowModuleName = "country-allow"

	CmdAddAllowedCountry    = "add-allowed-country"
	CmdRemoveAllowedCountry = "remove-allowed-country"
)

// CountryParams is the parameter payload of the country configuration
// commands of both country modules.
type CountryParams struct {
	_    struct{} `cbor:",toarray"`
	Code uint16
}

/*
CountryAllowModule approves a transfer iff the recipient's jurisdiction
code is in the per-binding allowed set. Recipients with no resolvable
identity are exempt.
*/
type CountryAllowModule struct {
	moduleBase
	registry identity.Registry
}

var _ compliance.Module = (*CountryAllowModule)(nil)

func NewCountryAllowModule(opts ...Option) (*CountryAllowModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	base, err := newModuleBase(CountryAllowModuleName, true, options)
	if err != nil {
		return nil, err
	}
	return &CountryAllowModule{moduleBase: base, registry: options.registry}, nil
}

func (m *CountryAllowModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	var p CountryParams
	switch cmd.Name {
	case CmdAddAllowedCountry:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.WriteState(core, countryKey(p.Code), true)
	case CmdRemoveAllowedCountry:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.DeleteState(core, countryKey(p.Code))
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *CountryAllowModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, _, to types.Address, _ uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	code, ok := m.registry.Jurisdiction(to)
	if !ok {
		return true
	}
	return m.countryListed(core, code)
}

func (m *CountryAllowModule) countryListed(core types.CoreID, code uint16) bool {
	var listed bool
	found, err := m.bindings.ReadState(core, countryKey(code), &listed)
	if err != nil {
		m.log.Error("reading allowed country set", logger.Error(err))
		return false
	}
	return found && listed
}

func countryKey(code uint16) []byte {
	return append([]byte("country:"), util.Uint16ToBytes(code)...)
}
