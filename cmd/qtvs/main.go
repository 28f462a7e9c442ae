package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/qtvstools/qtvs/cmd/qtvs/commands"
	"github.com/qtvstools/qtvs/pkg/telemetry"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

// run holds the body of main so deferred cleanup runs before os.Exit.
func run() int {
	// QTDIR, QTVS_DB and LOG_* may come from a .env next to the project.
	_ = godotenv.Load()

	closer, err := setupLogging()
	if err != nil {
		log.Error().Err(err).Msg("Invalid logging configuration")
		return commands.ExitConfigError
	}
	defer closer.Close()

	// Create context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := commands.Execute(ctx, Version, Commit, BuildDate); err != nil {
		if !commands.Reported(err) {
			log.Error().Err(err).Msg("Command execution failed")
		}
		return commands.ExitCodeFor(err)
	}
	return commands.ExitSuccess
}

// setupLogging configures the global logger from LOG_LEVEL, LOG_FORMAT and LOG_FILE.
func setupLogging() (io.Closer, error) {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = Version
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		cfg.Logging.Output = file
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	log.Logger = logger
	log.Debug().Str("service", cfg.ServiceName).Str("version", cfg.ServiceVersion).Msg("Logging configured")
	return closer, nil
}
