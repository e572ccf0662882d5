package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formportal/internal/app"
	"github.com/goliatone/go-formportal/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the portal over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("close", zap.Error(err))
				}
			}()

			// Binding problems are reported but do not stop the server:
			// misconfigured fields render blank.
			if report, err := a.Portal.Check(ctx); err != nil {
				logger.Warn("startup check failed", zap.Error(err))
			} else {
				for _, line := range report.Summary()[1:] {
					logger.Warn("config issue", zap.String("issue", line))
				}
			}

			html, err := a.HTMLRenderer()
			if err != nil {
				return err
			}

			options := []server.Option{
				server.WithLogger(logger),
				server.WithRenderer(html),
			}
			if cfg.Metrics.Enabled {
				options = append(options, server.WithMetrics(a.Metrics))
			}
			srv, err := server.NewServer(cfg, a.Portal, options...)
			if err != nil {
				return err
			}

			logger.Info("portal listening", zap.Int("port", cfg.Server.Port))
			if err := srv.Run(ctx, cfg.Server.ShutdownTimeout); err != nil {
				return err
			}
			logger.Info("portal shutdown complete")
			return nil
		},
	}
}
