package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/perfstore/internal/config"
)

const (
	appName = "perfstore"
	version = "v0.4.0"
)

// cfg is loaded once by the root command before any subcommand runs
var cfg *config.Config

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Time-bucketed performance sample store",
		Version: version,
		Long: `perfstore records request performance samples into Redis under
per-day, per-minute keys that expire after the retention window, and
summarizes them into median and percentile reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.Log.Level = logLevel
			}
			if err := setupLogger(os.Stderr, loaded.Log.Level, isTerminal(os.Stderr)); err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/perfstore.yaml", "Path to YAML configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(
		newSaveCmd(),
		newFetchCmd(),
		newKeysCmd(),
		newReportCmd(),
		newServeCmd(),
	)

	return rootCmd
}

// setupLogger points the global logger at out: human readable on a terminal,
// JSON lines otherwise.
func setupLogger(out io.Writer, level string, tty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	if tty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
