package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/config"
	"github.com/ButyrinIA/spacetraveling/internal/logger"
	"github.com/ButyrinIA/spacetraveling/internal/pages"
	"github.com/ButyrinIA/spacetraveling/internal/prismic"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
	"github.com/ButyrinIA/spacetraveling/internal/storage/memory"
	"github.com/ButyrinIA/spacetraveling/internal/storage/postgres"
	"github.com/ButyrinIA/spacetraveling/internal/storage/redis"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	storageType string
	cfg         *config.Config
	log         *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "Blog front end backed by a headless CMS",
	Long: `spacetraveling serves a blog listing with incremental "load more"
and post pages generated on demand from a Prismic-style content API.

  spacetraveling serve                    # run the HTTP server
  spacetraveling build --out ./public     # export the blog as static HTML`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "путь к файлу конфигурации")
	rootCmd.PersistentFlags().StringVar(&storageType, "storage", "memory", "тип хранилища: memory, postgres или redis")
	rootCmd.AddCommand(serveCmd, buildCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	log = logger.New(cfg.Log.Level, cfg.Log.Format)
	return nil
}

func openStorage(ctx context.Context) (storage.Storage, error) {
	switch storageType {
	case "postgres":
		log.Info("Инициализация хранилища PostgreSQL")
		store, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("не удалось инициализировать PostgreSQL: %w", err)
		}
		return store, nil
	case "redis":
		log.Info("Инициализация хранилища Redis", "addr", cfg.Redis.Addr)
		store, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("не удалось инициализировать Redis: %w", err)
		}
		return store, nil
	case "memory":
		log.Info("Инициализация хранилища Memory")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", storageType)
	}
}

// app is what both commands need: the CMS client, storage and the page builder.
type app struct {
	cms     *prismic.Client
	store   storage.Storage
	builder *pages.Builder
}

func newApp(ctx context.Context) (*app, error) {
	cms, err := prismic.New(cfg.Prismic, log)
	if err != nil {
		return nil, err
	}
	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}
	builder := pages.New(store, cms, pages.Options{
		DocumentType: cfg.Prismic.DocumentType,
		Revalidate:   cfg.Site.Revalidate,
		BatchWait:    5 * time.Millisecond,
	}, log)
	return &app{cms: cms, store: store, builder: builder}, nil
}

func (a *app) Close() {
	a.builder.Close()
	if err := a.store.Close(); err != nil {
		log.Warn("failed to close storage", "err", err)
	}
}
