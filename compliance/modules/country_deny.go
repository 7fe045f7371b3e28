package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
)

const (
	CountryDenyModuleName = "country-deny"

	CmdRestrictCountry   = "restrict-country"
	CmdUnrestrictCountry = "unrestrict-country"
)

/*
CountryDenyModule approves a transfer iff the recipient's jurisdiction code
is not in the per-binding restricted set. Recipients with no resolvable
identity are exempt.
*/
type CountryDenyModule struct {
	moduleBase
	registry identity.Registry
}

var _ compliance.Module = (*CountryDenyModule)(nil)

func NewCountryDenyModule(opts ...Option) (*CountryDenyModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	base, err := newModuleBase(CountryDenyModuleName, true, options)
	if err != nil {
		return nil, err
	}
	return &CountryDenyModule{moduleBase: base, registry: options.registry}, nil
}

func (m *CountryDenyModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	var p CountryParams
	switch cmd.Name {
	case CmdRestrictCountry:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.WriteState(core, countryKey(p.Code), true)
	case CmdUnrestrictCountry:
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		return m.bindings.DeleteState(core, countryKey(p.Code))
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *CountryDenyModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, _, to types.Address, _ uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	code, ok := m.registry.Jurisdiction(to)
	if !ok {
		return true
	}
	var restricted bool
	found, err := m.bindings.ReadState(core, countryKey(code), &restricted)
	if err != nil {
		m.log.Error("reading restricted country set", logger.Error(err))
		return false
	}
	return !(found && restricted)
}
