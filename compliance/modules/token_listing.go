package modules

import (
	"fmt"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
)

const (
	TokenListingModuleName = "token-listing"

	CmdConfigureListing = "configure-listing"
	CmdListInvestor     = "list-investor"
	CmdUnlistInvestor   = "unlist-investor"
)

// Listing types.
const (
	ListingWhitelist uint8 = 1
	ListingBlacklist uint8 = 2
)

// Listing addressing modes: list entries are keyed by the wallet itself or
// by its underlying verified identity.
const (
	AddressModeWallet   uint8 = 0
	AddressModeIdentity uint8 = 1
)

type (
	// ListingConfigParams is the parameter payload of configure-listing.
	ListingConfigParams struct {
		_           struct{} `cbor:",toarray"`
		Type        uint8
		AddressMode uint8
	}

	// ListingEntryParams is the parameter payload of list/unlist-investor.
	ListingEntryParams struct {
		_      struct{} `cbor:",toarray"`
		Wallet types.Address
	}

	listingConfig struct {
		_           struct{} `cbor:",toarray"`
		Type        uint8
		AddressMode uint8
	}
)

/*
TokenListingModule restricts transfers per the binding's listing mode:
whitelist mode approves iff the recipient is listed, blacklist mode iff it
is not. An unconfigured binding approves everything; redemption (null
recipient) always passes.
*/
type TokenListingModule struct {
	moduleBase
	registry identity.Registry
}

var _ compliance.Module = (*TokenListingModule)(nil)

func NewTokenListingModule(opts ...Option) (*TokenListingModule, error) {
	options := optionsOf(opts)
	if options.registry == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	base, err := newModuleBase(TokenListingModuleName, false, options)
	if err != nil {
		return nil, err
	}
	return &TokenListingModule{moduleBase: base, registry: options.registry}, nil
}

func (m *TokenListingModule) Configure(core types.CoreID, cmd types.ConfigCommand) error {
	if err := m.bindings.RequireBound(core); err != nil {
		return err
	}
	switch cmd.Name {
	case CmdConfigureListing:
		var p ListingConfigParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		if p.Type != ListingWhitelist && p.Type != ListingBlacklist {
			return fmt.Errorf("invalid listing type %d", p.Type)
		}
		if p.AddressMode != AddressModeWallet && p.AddressMode != AddressModeIdentity {
			return fmt.Errorf("invalid listing address mode %d", p.AddressMode)
		}
		var existing listingConfig
		found, err := m.bindings.ReadState(core, listingConfigKey(), &existing)
		if err != nil {
			return fmt.Errorf("reading listing configuration: %w", err)
		}
		if found {
			return fmt.Errorf("listing is already configured for this binding")
		}
		return m.bindings.WriteState(core, listingConfigKey(), listingConfig{Type: p.Type, AddressMode: p.AddressMode})
	case CmdListInvestor:
		var p ListingEntryParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		key, err := m.entryKey(core, p.Wallet)
		if err != nil {
			return err
		}
		return m.bindings.WriteState(core, key, true)
	case CmdUnlistInvestor:
		var p ListingEntryParams
		if err := cmd.DecodeParams(&p); err != nil {
			return err
		}
		key, err := m.entryKey(core, p.Wallet)
		if err != nil {
			return err
		}
		return m.bindings.DeleteState(core, key)
	default:
		return m.unknownCommand(cmd)
	}
}

func (m *TokenListingModule) ModuleCheck(_ compliance.ExecutionContext, core types.CoreID, _, to types.Address, _ uint64) bool {
	if !m.bindings.IsBound(core) {
		return true
	}
	if to.IsZero() {
		return true
	}
	var cfg listingConfig
	found, err := m.bindings.ReadState(core, listingConfigKey(), &cfg)
	if err != nil {
		m.log.Error("reading listing configuration", logger.Error(err))
		return false
	}
	if !found {
		return true
	}
	listed := m.isListed(core, cfg, to)
	if cfg.Type == ListingWhitelist {
		return listed
	}
	return !listed
}

func (m *TokenListingModule) isListed(core types.CoreID, cfg listingConfig, wallet types.Address) bool {
	var listed bool
	found, err := m.bindings.ReadState(core, listedKey(m.listingSubject(cfg, wallet)), &listed)
	if err != nil {
		m.log.Error("reading listing entry", logger.Error(err))
		return false
	}
	return found && listed
}

func (m *TokenListingModule) entryKey(core types.CoreID, wallet types.Address) ([]byte, error) {
	var cfg listingConfig
	found, err := m.bindings.ReadState(core, listingConfigKey(), &cfg)
	if err != nil {
		return nil, fmt.Errorf("reading listing configuration: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("listing is not configured for this binding")
	}
	return listedKey(m.listingSubject(cfg, wallet)), nil
}

func (m *TokenListingModule) listingSubject(cfg listingConfig, wallet types.Address) types.Address {
	if cfg.AddressMode == AddressModeIdentity {
		return identity.Resolve(m.registry, wallet)
	}
	return wallet
}

func listingConfigKey() []byte { return []byte("listing-cfg") }

func listedKey(subject types.Address) []byte {
	return append([]byte("listed:"), subject...)
}
