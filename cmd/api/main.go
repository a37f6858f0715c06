package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"filevault/internal/config"
	"filevault/internal/database"
	"filevault/internal/domain/auth"
	"filevault/internal/domain/file"
	"filevault/internal/domain/image"
	"filevault/internal/events"
	"filevault/internal/logger"
	jwtsvc "filevault/internal/pkg/jwt"
	"filevault/internal/queue"
	"filevault/internal/server"
)

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

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	err = run(cfg, appLogger)
	closer.Close()
	if err != nil {
		appLogger.Error("server exited with error", slog.String("error", err.Error()))
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
	appLogger.Info("storage root ready", slog.String("root", disk.Root()))

	hub := events.NewHub(appLogger)
	repo := file.NewRepository(db)

	fileService := file.NewService(repo, disk, appLogger)
	fileService.SetNotifier(hub)
	syncer := file.NewSyncer(repo, disk, appLogger)
	syncer.SetNotifier(hub)

	account, err := auth.NewAccount(cfg.UserLogin, cfg.UserPassword, cfg.UserPasswordHash)
	if err != nil {
		return err
	}
	authService := auth.NewService(account, jwtsvc.New(cfg.JWTSecret, cfg.SessionTTL), appLogger)
	if !authService.Enabled() {
		appLogger.Warn("USER_LOGIN not set, API is not protected")
	}

	var publisher image.Publisher
	if cfg.RabbitMQURL != "" {
		p := queue.NewPublisher(cfg.RabbitMQURL, cfg.ResizeQueue, appLogger)
		defer p.Close()
		publisher = p
	} else {
		appLogger.Warn("RABBITMQ_URL not set, resize endpoint disabled")
	}

	router := server.NewRouter(server.Deps{
		DB:             db,
		Auth:           authService,
		AuthHandler:    auth.NewHandler(authService, cfg.CookieSecure, cfg.CookieSameSite),
		FileHandler:    file.NewHandler(fileService, syncer, cfg.MaxUploadSize, appLogger),
		ImageHandler:   image.NewHandler(fileService, publisher, appLogger),
		Hub:            hub,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         appLogger,
	})

	if cfg.SyncInterval > 0 {
		syncer.Start(ctx, cfg.SyncInterval)
		defer syncer.Stop()
	}

	return server.New(":"+cfg.Port, router, cfg.ShutdownTimeout, appLogger).Run(ctx)
}
