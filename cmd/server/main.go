package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nomina/internal/app/server"
	"nomina/internal/platform/config"
	"nomina/internal/platform/db"
	"nomina/internal/platform/logger"
	"nomina/internal/platform/seed"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "nomina",
		Short:         "Catálogos de empleados, cuadrillas, actividades y periodos de pago",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), versionCmd())
	return root
}

// setup loads configuration and installs the process logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg := config.Load()
	log, err := logger.New(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.Run(ctx, cfg, log); err != nil {
				log.Error("server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if strings.TrimSpace(cfg.DatabaseURL) == "" {
				return errors.New("DATABASE_URL is required")
			}

			pool, err := db.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			applied, err := db.Migrate(cmd.Context(), pool, db.Migrations())
			if err != nil {
				return err
			}
			log.Info("migrations applied", zap.Strings("versions", applied))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin user and load the catalog file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if catalog != "" {
				cfg.SeedCatalogFile = catalog
			}
			if strings.TrimSpace(cfg.DatabaseURL) == "" {
				return errors.New("DATABASE_URL is required")
			}

			pool, err := db.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			if _, err := db.Migrate(cmd.Context(), pool, db.Migrations()); err != nil {
				return err
			}
			return seed.Run(cmd.Context(), pool, cfg, log)
		},
	}
	cmd.Flags().StringVar(&catalog, "catalog", "", "YAML catalog file (overrides SEED_CATALOG_FILE)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
