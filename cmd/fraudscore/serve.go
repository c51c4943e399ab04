package main

import (
	"github.com/spf13/cobra"

	"fraudscore/internal/config"
	"fraudscore/internal/container"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. The persisted model is restored from ARTIFACTS_DIR, or trained
from DATASET_PATH (the synthetic dataset when unset) if none exists.

Endpoints: /health /metrics /transactions /predict /explain /runs /internal/metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return container.Run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}
