package main

import (
	"github.com/spf13/cobra"

	"github.com/qepting91/saved-response/internal/config"
	"github.com/qepting91/saved-response/internal/dashboard"
)

func newDashboardCmd(g *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve charts of the action journal and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			logger := newLogger(cmd, g)
			logger.Info("Starting Dashboard", "port", cfg.Port, "journal", cfg.JournalPath)
			if err := dashboard.StartServer(cmd.Context(), cfg.JournalPath, cfg.Port); err != nil {
				logger.Error("Dashboard failed", "err", err)
				return err
			}
			logger.Info("Dashboard stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}
