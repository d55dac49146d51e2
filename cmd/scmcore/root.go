package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scmcore/config"
	"scmcore/logger"
	"scmcore/store"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	ConfigPath string
	Port       int
	Debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "scmcore",
		Short:         "Supply chain record store and prediction gateway",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "scmcore.yaml", "path to config file")
	cmd.PersistentFlags().IntVar(&opts.Port, "port", 0, "override web.port")
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "development logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newRankingCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newHashPasswordCommand())
	cmd.AddCommand(newInitConfigCommand(opts))

	return cmd
}

// load reads the config file and applies flag overrides.
func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", o.ConfigPath, err)
	}
	if o.Port > 0 {
		cfg.Web.Port = o.Port
	}
	if o.Debug {
		cfg.Log.Mode = "development"
	}
	lg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, lg, nil
}

func (o *rootOptions) openStore() (*store.Store, *config.Config, *logger.Logger, error) {
	cfg, lg, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(&cfg.Store, store.WithLogger(lg))
	if err != nil {
		lg.Sync()
		return nil, nil, nil, err
	}
	return st, cfg, lg, nil
}
