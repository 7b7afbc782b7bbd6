package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/logger"
	"github.com/orgoj/servicelog/internal/sink"
	"github.com/orgoj/servicelog/internal/version"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	testConfigShort := flag.Bool("t", false, "Test configuration and exit (nginx style)")
	testConfigLong := flag.Bool("test", false, "Test configuration and exit (nginx style)")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.VersionInfo())
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("[CRITICAL] Failed to load configuration from '%s': %v\n", *configPath, err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Printf("[CRITICAL] Configuration validation failed for '%s':\n%v\n", *configPath, err)
		os.Exit(1)
	}
	if !cfg.Sink.Enabled {
		fmt.Printf("[CRITICAL] sink.enabled is false in '%s'\n", *configPath)
		os.Exit(1)
	}

	if *testConfigShort || *testConfigLong {
		fmt.Printf("Configuration '%s' is valid.\n", *configPath)
		os.Exit(0)
	}

	appLogger := logger.GetAppLogger()
	if err := appLogger.SetLogLevelFromString(cfg.AppLog.Level); err != nil {
		fmt.Printf("[WARN] Invalid log level '%s', using default: %v\n", cfg.AppLog.Level, err)
	}
	appLogger.SetShowHealth(cfg.AppLog.ShowHealthLogs)
	appLogger.Warn("%s", version.VersionInfo())

	loggerManager := logger.NewManager()
	if err := loggerManager.InitLoggers(cfg.Destinations); err != nil {
		appLogger.Fatal("Failed to initialize one or more loggers: %v. Exiting.", err)
	}
	defer loggerManager.CloseAll()

	srv, err := sink.NewServer(sink.Dependencies{
		Config:        cfg,
		LoggerManager: loggerManager,
		AppLogger:     appLogger,
	})
	if err != nil {
		appLogger.Fatal("Failed to create sink: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		appLogger.Error("Sink error: %v", err)
		loggerManager.CloseAll()
		os.Exit(1)
	}
	appLogger.Info("ServiceLog sink shut down gracefully.")
}
