package main

import (
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/spacetraveling/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv, err := server.New(cfg, a.cms, a.builder, log)
		if err != nil {
			return err
		}
		log.Info("Запуск сервера", "port", cfg.Server.Port, "storage", storageType)
		return srv.Run(ctx)
	},
}
