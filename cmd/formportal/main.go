// Command formportal serves the client reporting portal and offers terminal
// tools for editing records and checking the worksheet configuration.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/config"
	"github.com/goliatone/go-formportal/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd(defaultEditDeps()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(deps editDeps) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "formportal <command>",
		Short:        "Client reporting portal backed by a shared worksheet",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (yaml, toml or json)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newServeCmd(opts),
		newEditCmd(opts, deps),
		newCheckCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configPath)
}

// load reads the configuration and builds the logger. Terminal commands log
// warnings to stderr so their own output stays clean.
func (o *rootOptions) load(terminal bool) (*config.Config, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Logging
	if terminal {
		logCfg.Output = "stderr"
		logCfg.Format = "console"
		logCfg.Level = "warn"
	}
	if o.verbose {
		logCfg.Level = "debug"
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
