package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/shoplist-api/internal/config"
	"github.com/vyrodovalexey/shoplist-api/internal/server"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "shoplist",
		Short:        "Shopping list API server",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newSchemasCmd(), newValidateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		port    int
		driver  string
		dbPath  string
		schemas string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.ServerPort = port
			}
			if flags.Changed("store") {
				cfg.StoreDriver = driver
			}
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("schemas") {
				cfg.SchemaFile = schemas
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validating config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultServerPort, "HTTP listen port")
	cmd.Flags().StringVar(&driver, "store", config.DefaultStoreDriver, "list store: memory or sqlite")
	cmd.Flags().StringVar(&dbPath, "db", config.DefaultDBPath, "SQLite database path")
	cmd.Flags().StringVar(&schemas, "schemas", "", "validation rule file (YAML)")

	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("auth_mode", cfg.AuthMode),
		zap.String("store", cfg.StoreDriver),
		zap.String("schema_file", cfg.SchemaFile),
	)

	table, err := loadTable(cfg.SchemaFile)
	if err != nil {
		return err
	}
	v, err := validation.NewValidator(table)
	if err != nil {
		return err
	}

	authenticator, err := createAuthenticator(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	s, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	srv := server.New(cfg, logger, s, v, authenticator)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

func newSchemasCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Print the active validation rules as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("file") {
				cfg, err := config.FromEnv()
				if err != nil {
					return err
				}
				file = cfg.SchemaFile
			}

			table, err := loadTable(file)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(table); err != nil {
				return fmt.Errorf("encoding schemas: %w", err)
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "rule file to print instead of the configured one")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that a validation rule file can be loaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := validation.LoadTable(args[0])
			if err != nil {
				return err
			}
			if _, err := validation.NewValidator(table); err != nil {
				return err
			}

			for _, name := range table.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules\n", name, len(table.Schemas[name]))
			}
			return nil
		},
	}
}
