package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/observability"
)

const (
	// The prefix for configuration keys inside environment.
	envPrefix = "TG"
	// The default name for config file.
	defaultConfigFile = "config.props"
	// The default tokengate directory.
	defaultTokengateDir = ".tokengate"
	// The default logger configuration file name.
	defaultLoggerConfigFile = "logger-config.yaml"
	// The configuration key for home directory.
	keyHome = "home"
	// The configuration key for config file name.
	keyConfig = "config"
	// Enables or disables metrics collection.
	keyMetrics = "metrics"

	flagNameLoggerCfgFile = "logger-config"
	flagNameLogOutputFile = "log-file"
	flagNameLogLevel      = "log-level"
	flagNameLogFormat     = "log-format"
)

type (
	tokengateApp struct {
		baseCmd    *cobra.Command
		baseConfig *baseConfiguration
	}

	baseConfiguration struct {
		// The tokengate home directory.
		HomeDir string
		// Configuration file URL. If it's relative, then it's relative from the HomeDir.
		CfgFile string
		// Logger configuration file URL.
		LogCfgFile string

		observe *observability.Observability
	}
)

// New creates a new tokengate application
func New() *tokengateApp {
	baseCmd, baseConfig := newBaseCmd()
	return &tokengateApp{baseCmd, baseConfig}
}

// Execute adds all child commands and runs the application
func (a *tokengateApp) Execute(ctx context.Context) (err error) {
	defer func() {
		if a.baseConfig.observe != nil {
			err = errors.Join(err, a.baseConfig.observe.Shutdown())
		}
	}()

	a.baseCmd.AddCommand(newEngineRunCmd(a.baseConfig))
	return a.baseCmd.ExecuteContext(ctx)
}

func newBaseCmd() (*cobra.Command, *baseConfiguration) {
	config := &baseConfiguration{}
	// baseCmd represents the base command when called without any subcommands
	var baseCmd = &cobra.Command{
		Use:           "tokengate",
		Short:         "The tokengate CLI",
		Long:          `The tokengate CLI runs the compliance engine and its REST API.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Binding cobra and viper in PersistentPreRunE of the base
			// command covers subcommands which do not define their own.
			if err := initializeConfig(cmd, config); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
	}
	config.addConfigurationFlags(baseCmd)

	return baseCmd, config
}

func initializeConfig(cmd *cobra.Command, config *baseConfiguration) error {
	var errs []error

	if err := config.initializeConfig(cmd); err != nil {
		errs = append(errs, fmt.Errorf("reading configuration: %w", err))
	}

	log, err := config.initLogger(cmd)
	if err != nil {
		errs = append(errs, fmt.Errorf("initializing logger: %w", err))
	}

	metrics, err := cmd.Flags().GetString(keyMetrics)
	if err != nil {
		errs = append(errs, fmt.Errorf("reading flag %q: %w", keyMetrics, err))
	} else {
		obs, err := observability.New(metrics, log)
		if err != nil {
			errs = append(errs, fmt.Errorf("initializing observability: %w", err))
		}
		config.observe = obs
	}

	return errors.Join(errs...)
}

// initializeConfig reads in config file and ENV variables if set.
func (config *baseConfiguration) initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	config.initConfigFileLocation()

	if config.configFileExists() {
		v.SetConfigFile(config.CfgFile)
	}

	// Attempt to read the config file, gracefully ignoring errors caused by
	// a config file not being found. Return an error if we cannot parse the
	// config file.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	// When we bind flags to environment variables expect that the
	// environment variables are prefixed, e.g. a flag like --number binds
	// to an environment variable TG_NUMBER. This helps avoid conflicts.
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	// Bind the current command's flags to viper
	if err := bindFlags(cmd, v); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	return nil
}

// Bind each cobra flag to its associated viper configuration (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindFlagErr []error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == keyHome || f.Name == keyConfig {
			// "home" and "config" are special configuration values, handled separately.
			return
		}

		// Environment variables can't have dashes in them, so bind them to
		// their equivalent keys with underscores, e.g. --rest-addr to
		// TG_REST_ADDR.
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("binding env to flag %q: %w", f.Name, err))
				return
			}
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindFlagErr = append(bindFlagErr, fmt.Errorf("setting flag %q value: %w", f.Name, err))
				return
			}
		}
	})

	return errors.Join(bindFlagErr...)
}

func (config *baseConfiguration) addConfigurationFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&config.HomeDir, keyHome, "", fmt.Sprintf("set the TG_HOME for this invocation (default is %s)", tokengateHomeDir()))
	cmd.PersistentFlags().StringVar(&config.CfgFile, keyConfig, "", fmt.Sprintf("config file URL (default is $TG_HOME/%s)", defaultConfigFile))

	cmd.PersistentFlags().String(keyMetrics, "", "metrics exporter, disabled when not set. One of: stdout")

	cmd.PersistentFlags().StringVar(&config.LogCfgFile, flagNameLoggerCfgFile, defaultLoggerConfigFile, "logger config file URL. Considered absolute if starts with '/'. Otherwise relative from $TG_HOME.")
	// no default values for these flags as then we can easily determine
	// whether to load the value from cfg file or not
	cmd.PersistentFlags().String(flagNameLogOutputFile, "", "log file path or one of the special values: stdout, stderr, discard")
	cmd.PersistentFlags().String(flagNameLogLevel, "", "logging level, one of: DEBUG, INFO, WARN, ERROR")
	cmd.PersistentFlags().String(flagNameLogFormat, "", "log format, one of: text, json")
}

func (config *baseConfiguration) initConfigFileLocation() {
	// Home directory and config file are special configuration values as
	// these are used for loading in rest of the configuration.

	if config.HomeDir == "" {
		config.HomeDir = os.Getenv(envKey(keyHome))
		if config.HomeDir == "" {
			config.HomeDir = tokengateHomeDir()
		}
	}

	if config.CfgFile == "" {
		config.CfgFile = os.Getenv(envKey(keyConfig))
		if config.CfgFile == "" {
			config.CfgFile = defaultConfigFile
		}
	}
	if !filepath.IsAbs(config.CfgFile) {
		config.CfgFile = filepath.Join(config.HomeDir, config.CfgFile)
	}
}

func (config *baseConfiguration) configFileExists() bool {
	_, err := os.Stat(config.CfgFile)
	return err == nil
}

/*
loggerCfgFilename always returns non-empty filename - either the value of
the flag set by user or default cfg location.
*/
func (config *baseConfiguration) loggerCfgFilename() string {
	if !filepath.IsAbs(config.LogCfgFile) {
		return filepath.Join(config.HomeDir, config.LogCfgFile)
	}
	return config.LogCfgFile
}

/*
initLogger builds the logger from the optional logger configuration file,
with the log-* command line flags overriding what the file sets.
*/
func (config *baseConfiguration) initLogger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg := &logger.LogConfiguration{}

	loggerCfgFile := filepath.Clean(config.loggerCfgFilename())
	if loaded, err := logger.LoadConfiguration(loggerCfgFile); err != nil {
		defaultLoggerCfg := filepath.Join(config.HomeDir, defaultLoggerConfigFile)
		if !(errors.Is(err, os.ErrNotExist) && loggerCfgFile == defaultLoggerCfg) {
			return nil, fmt.Errorf("loading logger configuration: %w", err)
		}
	} else {
		cfg = loaded
	}

	if err := applyLoggerFlags(cmd, cfg); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}

func applyLoggerFlags(cmd *cobra.Command, cfg *logger.LogConfiguration) error {
	flagValue := func(name string, into *string) error {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return fmt.Errorf("reading flag %q: %w", name, err)
		}
		*into = v
		return nil
	}

	return errors.Join(
		flagValue(flagNameLogLevel, &cfg.Level),
		flagValue(flagNameLogFormat, &cfg.Format),
		flagValue(flagNameLogOutputFile, &cfg.OutputPath),
	)
}

func envKey(key string) string {
	return strings.ToUpper(envPrefix + "_" + key)
}

func tokengateHomeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		// if home is not defined then use the current working directory
		dir = "."
	}
	return filepath.Join(dir, defaultTokengateDir)
}
