package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ainvaltin/httpsrv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/compliance/modules"
	"github.com/tokengate-org/tokengate/identity"
	"github.com/tokengate-org/tokengate/keyvaluedb"
	"github.com/tokengate-org/tokengate/keyvaluedb/boltdb"
	"github.com/tokengate-org/tokengate/ledger"
	"github.com/tokengate-org/tokengate/rpc"
	"github.com/tokengate-org/tokengate/types"
)

const moduleStoreFileName = "modules.db"

type engineRunFlags struct {
	CoreID   string
	Owner    string
	LedgerID string

	ModuleStoreFile string
	RESTAddr        string
	MaxBodySize     int64
}

func newEngineRunCmd(baseConfig *baseConfiguration) *cobra.Command {
	flags := &engineRunFlags{}
	var cmd = &cobra.Command{
		Use:   "run",
		Short: "Starts the compliance engine",
		Long:  `Starts a standalone compliance engine with an in-memory demo ledger and serves its REST API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return engineRun(cmd.Context(), baseConfig, flags)
		},
	}

	cmd.Flags().StringVar(&flags.CoreID, "core-id", "01", "hex encoded compliance core identifier")
	cmd.Flags().StringVar(&flags.Owner, "owner", "", "hex encoded address of the core owner")
	cmd.Flags().StringVar(&flags.LedgerID, "ledger-id", "01", "hex encoded identifier of the asset ledger to bind")
	cmd.Flags().StringVar(&flags.ModuleStoreFile, "module-db", "",
		fmt.Sprintf("path to the module state database (default %s)", filepath.Join("$TG_HOME", moduleStoreFileName)))
	cmd.Flags().StringVar(&flags.RESTAddr, "rest-addr", "localhost:8001", "address the REST API listens on")
	cmd.Flags().Int64Var(&flags.MaxBodySize, "rest-max-body-size", 1<<20, "maximum REST request body size in bytes")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func engineRun(ctx context.Context, baseConfig *baseConfiguration, flags *engineRunFlags) error {
	observe := baseConfig.observe
	log := observe.Logger()

	coreID, err := hex.DecodeString(flags.CoreID)
	if err != nil {
		return fmt.Errorf("parsing core identifier: %w", err)
	}
	ledgerID, err := hex.DecodeString(flags.LedgerID)
	if err != nil {
		return fmt.Errorf("parsing ledger identifier: %w", err)
	}
	var owner types.Address
	if err := owner.UnmarshalText([]byte(flags.Owner)); err != nil {
		return fmt.Errorf("parsing owner address: %w", err)
	}
	if owner.IsZero() {
		return fmt.Errorf("owner must not be the zero address")
	}

	storeFile := flags.ModuleStoreFile
	if storeFile == "" {
		storeFile = filepath.Join(baseConfig.HomeDir, moduleStoreFileName)
	}
	store, err := boltdb.New(storeFile)
	if err != nil {
		return fmt.Errorf("opening module state database: %w", err)
	}
	defer store.Close()

	registry := identity.NewMemoryRegistry()
	assetLedger := ledger.NewMemoryLedger(ledgerID)

	core, err := compliance.NewCore(coreID, owner, observe)
	if err != nil {
		return fmt.Errorf("creating compliance core: %w", err)
	}
	if err := core.BindLedger(owner, ledgerID); err != nil {
		return fmt.Errorf("binding ledger: %w", err)
	}
	if err := addModules(core, owner, store, registry, assetLedger); err != nil {
		return err
	}

	adapter, err := ledger.NewAdapter(core, assetLedger, func() uint64 { return uint64(time.Now().Unix()) })
	if err != nil {
		return fmt.Errorf("creating ledger adapter: %w", err)
	}

	log.InfoContext(ctx, fmt.Sprintf("starting compliance engine %s, REST API on %s", core.ID(), flags.RESTAddr))
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server := rpc.NewRESTServer(flags.RESTAddr, flags.MaxBodySize, observe,
			rpc.InfoEndpoints(core, log),
			rpc.CheckEndpoints(adapter, log),
		)
		return httpsrv.Run(ctx, *server, httpsrv.ShutdownTimeout(5*time.Second))
	})

	return g.Wait()
}

/*
addModules registers the full rule module set with the core. The modules
are inert until configured; the fee module is handed the ledger's mover
capability as the demo ledger grants it the operator role implicitly.
*/
func addModules(core *compliance.Core, owner types.Address, store keyvaluedb.KeyValueDB, registry identity.Registry, assetLedger *ledger.MemoryLedger) error {
	options := []modules.Option{
		modules.WithDB(store),
		modules.WithRegistry(registry),
		modules.WithLedgerState(assetLedger),
		modules.WithMover(assetLedger),
	}

	for _, newModule := range []func() (compliance.Module, error){
		func() (compliance.Module, error) { return modules.NewCountryAllowModule(options...) },
		func() (compliance.Module, error) { return modules.NewCountryDenyModule(options...) },
		func() (compliance.Module, error) { return modules.NewTransferRestrictModule(options...) },
		func() (compliance.Module, error) { return modules.NewBalanceCapModule(options...) },
		func() (compliance.Module, error) { return modules.NewSupplyCapModule(options...) },
		func() (compliance.Module, error) { return modules.NewTransferLimitsModule(options...) },
		func() (compliance.Module, error) { return modules.NewExchangeLimitsModule(options...) },
		func() (compliance.Module, error) { return modules.NewTransferFeesModule(options...) },
		func() (compliance.Module, error) { return modules.NewTokenListingModule(options...) },
		func() (compliance.Module, error) { return modules.NewConditionalTransferModule(options...) },
	} {
		module, err := newModule()
		if err != nil {
			return fmt.Errorf("creating module: %w", err)
		}
		if err := core.AddModule(owner, module); err != nil {
			return fmt.Errorf("adding module %s: %w", module.Name(), err)
		}
	}
	return nil
}
