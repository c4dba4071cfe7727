package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/amplify-core-api/internal/application"
	"github.com/eugenenazirov/amplify-core-api/internal/config"
	"github.com/eugenenazirov/amplify-core-api/internal/logging"
)

var signalNotify = signal.Notify

type cliFlags struct {
	envFile   string
	overrides *config.CLIOverrides
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		panic(fmt.Sprintf("failed to parse flags: %v", err))
	}

	envFileErr := config.LoadEnvFile(flags.envFile)

	cfg, err := config.Load(flags.overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if envFileErr != nil {
		logger.Warn("settings file ignored", zap.String("path", flags.envFile), zap.Error(envFileErr))
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func parseFlags(args []string) (cliFlags, error) {
	kingpinApp := kingpin.New("amplify-core-api", "Amplify Core API - HTTP backend for the author platform")
	envFile := kingpinApp.Flag("env-file", "Path to the .env settings file (missing file is ignored)").Default(config.DefaultEnvFile).String()
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	host := kingpinApp.Flag("host", "Interface to bind, empty for all").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	if _, err := kingpinApp.Parse(args); err != nil {
		return cliFlags{}, err
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *host != "" {
		overrides.Host = host
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	return cliFlags{envFile: *envFile, overrides: overrides}, nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
