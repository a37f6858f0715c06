package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/domain/file"
	"filevault/internal/logger"
)

// sync reconciles the record store with the storage folder once and exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLogger, closer, err := logger.New(logger.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	err = run(cfg, appLogger)
	closer.Close()
	if err != nil {
		appLogger.Error("sync failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, appLogger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, &file.Record{}); err != nil {
		return err
	}

	disk, err := file.NewDisk(cfg.RootFolder)
	if err != nil {
		return err
	}

	result, err := file.NewSyncer(file.NewRepository(db), disk, appLogger).Sync(ctx)
	if err != nil {
		return err
	}

	appLogger.Info("sync completed",
		slog.Int("added", len(result.FilesToAdd)),
		slog.Int("deleted", len(result.FilesToDelete)),
	)
	return nil
}
