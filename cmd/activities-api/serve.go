// cmd/activities-api/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mergington-activities/internal/app"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/logger"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		address  string
		seedPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Examples:
  # Serve with configs/config.yaml
  activities-api serve

  # Serve a custom catalog on another port
  activities-api serve --address :9000 --seed ./catalog.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("address") {
				cfg.Server.Address = address
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed.Path = seedPath
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	cmd.Flags().StringVar(&seedPath, "seed", "", "seed catalog file (overrides seed.path)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting activities API...",
		zap.String("version", version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		zapLog.Error("startup failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			zapLog.Error("Error releasing resources", zap.Error(err))
		}
	}()

	if err := a.Run(ctx); err != nil {
		zapLog.Error("server stopped with error", zap.Error(err))
		return err
	}
	zapLog.Info("Activities API stopped gracefully")
	return nil
}
