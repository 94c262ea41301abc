// cmd/activities-api/root.go
package main

import (
	"github.com/spf13/cobra"

	"mergington-activities/internal/common/config"
)

type rootOptions struct {
	cfgFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "activities-api",
		Short: "Mergington High School extracurricular activities service",
		Long: `Serves the activities signup API and manages the seed catalog it starts from.

Run without a subcommand to serve with the configured settings.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "",
		"config file (default: configs/config.yaml, overlaid by config.<APP_ENVIRONMENT>.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"override logging.level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newSeedCmd(),
		newActivitiesCmd(opts),
	)
	return cmd
}

// loadConfig resolves the config file named by --config, or the default
// lookup when the flag is empty, and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.cfgFile != "" {
		cfg, err = config.LoadFromFile(o.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}
