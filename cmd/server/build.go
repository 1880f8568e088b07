package main

import (
	"os/signal"
	"syscall"

	"github.com/ButyrinIA/spacetraveling/internal/export"
	"github.com/ButyrinIA/spacetraveling/internal/server"
	"github.com/spf13/cobra"
)

var (
	outDir      string
	concurrency int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export every post as static HTML",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		render, err := server.NewRenderer(cfg.Site.Title, cfg.Site.Locale)
		if err != nil {
			return err
		}
		exp := export.New(a.cms, a.builder, render, export.Options{
			DocumentType: cfg.Prismic.DocumentType,
			PageSize:     cfg.Prismic.PageSize,
			Concurrency:  concurrency,
		}, log)

		n, err := exp.Run(ctx, outDir)
		if err != nil {
			return err
		}
		cmd.Printf("exported %d posts to %s\n", n, outDir)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&outDir, "out", "public", "output directory")
	buildCmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel post builds")
}
