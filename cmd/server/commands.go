package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/config"
	"github.com/VitaminP8/tweed/internal/logging"
)

// flags переопределяют значения из окружения
type flags struct {
	storage string
	addr    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "tweed",
		Short:        "Micro-posting service with threaded replies",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&f.storage, "storage", "", "storage backend: memory, postgres or badger (overrides STORAGE)")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(f)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	// без подкоманды запускается сервер
	root.RunE = serveCmd.RunE

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(f)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return migrate(cmd.Context(), cfg, log)
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	return root
}

// setup загружает конфигурацию, применяет флаги и создает логгер
func setup(f *flags) (config.Config, *zap.Logger, error) {
	config.LoadEnv()

	// ошибка Load может быть исправлена флагами, поэтому проверяем еще раз
	cfg, loadErr := config.Load()
	if f.storage != "" {
		cfg.Storage = strings.ToLower(f.storage)
	}
	if f.addr != "" {
		cfg.HTTPAddr = f.addr
	}
	if err := cfg.Validate(); err != nil {
		if loadErr != nil {
			return config.Config{}, nil, loadErr
		}
		return config.Config{}, nil, err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func migrate(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Storage != config.StoragePostgres {
		log.Info("storage has no schema to migrate", zap.String("storage", cfg.Storage))
		return nil
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	log.Info("schema migrated")
	return nil
}
