package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/guidebook/core/internal/adapters/repository"
	"github.com/guidebook/core/internal/adapters/storage"
	"github.com/guidebook/core/internal/application/services"
	"github.com/guidebook/core/internal/infrastructure/config"
	"github.com/guidebook/core/internal/infrastructure/database"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/infrastructure/server"
	"github.com/guidebook/core/internal/ports"
)

// Version is overridden at build time with -ldflags
var Version = "1.0.0"

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Guidebook API server",
		Long:  "Start the Guidebook API server with the configured guide store and upload backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, _ := cmd.Flags().GetString("store")
			return runServer(driver)
		},
	}
	cmd.Flags().String("store", "", "Guide store driver override (file, memory, redis, postgres)")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the postgres guide store schema (up, down, version)",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Run up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigration("up", steps)
		},
	}
	upCmd.Flags().Int("steps", 0, "Number of migrations to apply (0 = all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Run down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to revert (0 = all)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion(cmd)
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

// NewTokenCommand creates the command issuing editor tokens
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <editor>",
		Short: "Issue an editor token for mutating routes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := services.NewAuthService(cfg.Security).IssueToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to security.editor_token_ttl)")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Guidebook version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Guidebook v%s\n", Version)
		},
	}
}

func runServer(driver string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if driver != "" {
		cfg.Storage.Driver = driver
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --store: %w", err)
		}
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openGuideRepository(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to open guide store", "driver", cfg.Storage.Driver, "error", err)
		return err
	}
	defer closeRepo()

	uploads, err := openUploadStorage(ctx, cfg)
	if err != nil {
		appLogger.Errorw("Failed to open upload storage", "backend", cfg.Uploads.Backend, "error", err)
		return err
	}

	srv, err := server.New(cfg, repo, uploads, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting Guidebook API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
		"uploads", cfg.Uploads.Backend,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorw("Server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openGuideRepository builds the configured guide store. The returned
// func releases its connections.
func openGuideRepository(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (ports.GuideRepository, func(), error) {
	noop := func() {}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return repository.NewMemoryGuideRepository(), noop, nil

	case config.DriverRedis:
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return repository.NewRedisGuideRepository(client, cfg.Redis.Prefix), func() { client.Close() }, nil

	case config.DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresGuideRepository(db.DB), func() { db.Close() }, nil

	case config.DriverFile:
		repo, err := repository.NewFileGuideRepository(cfg.Storage.DataFile, appLogger)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openUploadStorage(ctx context.Context, cfg *config.Config) (ports.UploadStorage, error) {
	if cfg.Uploads.Backend == config.UploadsMinio {
		return storage.NewMinioStorage(ctx, cfg.Minio)
	}
	return storage.NewDiskStorage(cfg.Storage.UploadsDir)
}

func runMigration(direction string, steps int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	changed, err := db.Migrate(direction, steps)
	if err != nil {
		return err
	}

	if !changed {
		log.Println("No migrations to run")
	} else {
		log.Printf("Migration %s completed successfully", direction)
	}
	return nil
}

func showMigrationVersion(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := db.Version()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Current migration version: %d\n", version)
	fmt.Fprintf(cmd.OutOrStdout(), "Dirty: %t\n", dirty)
	return nil
}
