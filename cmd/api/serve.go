package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"stealthcompany.com/clinic/internal/api"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/metrics"
	"stealthcompany.com/clinic/internal/orchestrator"
)

const systemMetricsInterval = 15 * time.Second

func serveCmd() *cobra.Command {
	var port, driver string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap("clinic-api")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.APIPort = port
			}
			if cmd.Flags().Changed("driver") {
				cfg.StoreDriver = driver
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			log.Info().
				Str("driver", cfg.StoreDriver).
				Msg("Starting clinic-api service")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			signals := orchestrator.NewSignalHandler()
			defer signals.Stop()
			signals.HandleSignals(ctx, cancel)

			store, err := openStore(ctx, cfg)
			if err != nil {
				log.Error().Err(err).Msg("Failed to open document store")
				return err
			}

			if cfg.EnableSystemMetrics {
				metrics.StartSystemMetrics(ctx, systemMetricsInterval)
			}

			models := dal.NewModels(store, cfg.OrdinalLockWait)
			router := api.SetupRoutes(api.NewHandlers(store, models), cfg.CORSOrigins)

			server := &http.Server{
				Addr:              ":" + cfg.APIPort,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			sm := orchestrator.NewServiceManager(server, cfg.ShutdownTimeout)
			sm.OnShutdown("document store", func() error { return closeStore(store) })
			return sm.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides API_PORT)")
	cmd.Flags().StringVar(&driver, "driver", "", "document store driver: couchbase or redis (overrides STORE_DRIVER)")
	return cmd
}
