package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qtvstools/qtvs/pkg/telemetry"
)

var (
	// Global flags
	qtDir           string
	dbPath          string
	verbose         bool
	outputFormat    string
	metricsTextfile string

	// Set up in PersistentPreRunE
	metrics *telemetry.Metrics
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	err := rootCmd.ExecuteContext(ctx)

	// Written even when the command failed, so failed tool runs are counted.
	if werr := metrics.WriteTextfile(); werr != nil {
		log.Warn().Err(werr).Msg("Failed to write metrics")
	}

	return err
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	metrics = nil

	rootCmd := &cobra.Command{
		Use:   "qtvs",
		Short: "qtvs - Qt installation helper",
		Long: `qtvs inspects Qt installations and runs their command-line tools.

Features:
  - Static/shared detection from mkspecs/qconfig.pri
  - Windows CE code-signing certificate lookup (DEFAULT_SIGNATURE)
  - Running lupdate, lrelease, uic and friends with readable exit codes
  - A registry of named Qt versions`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.Logger = log.Logger.Level(zerolog.DebugLevel)
			}

			switch outputFormat {
			case "text", "json", "yaml":
			default:
				return configError("invalid output format %q (must be text, json or yaml)", outputFormat)
			}

			mcfg := telemetry.DefaultConfig().Metrics
			mcfg.Enabled = metricsTextfile != ""
			mcfg.TextfilePath = metricsTextfile

			m, err := telemetry.NewMetrics(mcfg)
			if err != nil {
				return err
			}
			metrics = m
			return nil
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&qtDir, "qtdir", "q", os.Getenv("QTDIR"), "Qt installation directory, or @name of a registered version")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "Qt version registry database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	// Add subcommands
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newVersionsCommand())

	return rootCmd
}

// defaultDBPath returns QTVS_DB or <user config dir>/qtvs/versions.db.
func defaultDBPath() string {
	if p := os.Getenv("QTVS_DB"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "qtvs-versions.db"
	}
	return filepath.Join(dir, "qtvs", "versions.db")
}
