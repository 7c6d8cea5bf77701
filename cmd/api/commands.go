package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"imageapi/internal/config"
	"imageapi/internal/database"
	"imageapi/internal/domain/images"
	"imageapi/internal/logging"
	"imageapi/internal/server"
	"imageapi/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type flags struct {
	configPath  string
	addr        string
	databaseURL string
	storageDir  string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "imageapi",
		Short:         "HTTP service for uploading and serving images",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	root.PersistentFlags().StringVar(&f.databaseURL, "database-url", "", "database DSN (overrides DATABASE_URL)")
	root.PersistentFlags().StringVar(&f.storageDir, "storage-dir", "", "blob storage root (overrides STORAGE_DIR)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), f)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the image_asset table and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(f)
			},
		},
	)
	return root
}

// loadConfig applies CLI flags on top of the file and environment.
func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.addr != "" {
		cfg.HTTPAddr = f.addr
	}
	if f.databaseURL != "" {
		cfg.DatabaseURL = f.databaseURL
	}
	if f.storageDir != "" {
		cfg.StorageDir = f.storageDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(logging.New(cfg.LogLevel))
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := images.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func runMigrate(f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	slog.Info("migration complete")
	return nil
}

func runServe(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	store, err := storage.NewFileStore(cfg.StorageDir)
	if err != nil {
		return err
	}

	logger := slog.Default()
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(cfg, db, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", cfg.HTTPAddr, "storage_dir", store.Root(), "app_env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
