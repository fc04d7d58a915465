package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	kasir "github.com/Azizzarkasyi/kasir-pos-sub002"
	"github.com/Azizzarkasyi/kasir-pos-sub002/internal/config"
	"github.com/Azizzarkasyi/kasir-pos-sub002/internal/db"
	"github.com/Azizzarkasyi/kasir-pos-sub002/internal/routes"
	"github.com/Azizzarkasyi/kasir-pos-sub002/zapLogger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize zapLogger
	logFile := zapLogger.Init(zapLogger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	storage, closeStorage, err := db.OpenStorage(ctx, cfg)
	cancel()
	if err != nil {
		zapLogger.Log.Fatalf("Failed to open %s storage: %v", cfg.StorageDriver, err)
	}
	defer closeStorage()
	zapLogger.Log.Infof("Using %s storage", cfg.StorageDriver)

	pos, err := kasir.NewApp(kasir.Deps{
		Storage:   storage,
		Navigator: kasir.NavigatorFunc(func(context.Context) error { return nil }),
		Logger:    zapLogger.Named("kasir"),
	})
	if err != nil {
		zapLogger.Log.Fatalf("Failed to build app: %v", err)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	if err := pos.Init(initCtx); err != nil {
		zapLogger.Log.Warnf("Client state only partly restored: %v", err)
	}
	cancelInit()

	role, _ := pos.Roles.Role()
	plan, _ := pos.Plan.Plan()
	zapLogger.Named("kasir").Info("session restored",
		zap.String("role", string(role)),
		zap.String("plan", string(plan)),
		zap.String("branch", pos.Branch.CurrentBranchName()))

	// Set up Fiber app
	app := fiber.New()
	app.Use(zapLogger.FiberLoggingMiddleware(logFile))
	routes.Setup(app, pos)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.AppPort)
	zapLogger.Log.Infof("Device console started on port %d", cfg.AppPort)
	if err := app.Listen(addr); err != nil {
		zapLogger.Log.Errorf("Server stopped: %v", err)
	}
}
