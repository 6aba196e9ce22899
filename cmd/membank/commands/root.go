// Package commands implements the CLI commands for membank.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	backupcmd "membank/cmd/membank/commands/backup"
	"membank/cmd/membank/commands/flags"
	"membank/internal/config"
	"membank/internal/errors"
	"membank/internal/logging"
)

// version is set at build time via ldflags.
// Default to a development version for local builds.
const cliVersion = "1.0.0"

// bankFlag holds the value of the -b/--bank flag.
var bankFlag string

// cfgFile holds the value of the --config flag.
var cfgFile string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// cfg is the loaded configuration, nil until initConfig runs.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&bankFlag, "bank", "b", "",
		"memory bank directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./config.yaml, then XDG config dir)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	rootCmd.Version = cliVersion
	rootCmd.SetVersionTemplate("membank version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(backupcmd.Cmd)
}

func initConfig() {
	config.Init()
	// Capture load errors for later reporting
	cfg, configLoadErr = config.Load(cfgFile)
}

var rootCmd = &cobra.Command{
	Use:   "membank",
	Short: "Keep an AI assistant memory bank up to date",
	Long: `membank manages the lifecycle of a project's memory bank: the set
of context, rule, and stack guidance files an AI coding assistant reads.

It updates a bank in place from the published release while protecting
your own content. Files you author (project brief, active context,
progress notes) are never touched. System files are kept current on
every update. Stack guidance documents are replaced only when you
haven't modified them; otherwise membank shows you the diff and asks.

Every update is preceded by an automatic backup, so a bad update is one
'membank restore' away from undone.`,
	Example: `  # See what an update would bring
  membank update check

  # Update the bank in the current directory
  membank update

  # Roll back the last update
  membank restore

  # Find stack guidance for a new project
  membank guide

  See Also: membank status, membank backup, membank history`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return applyConfig(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("MEMBANK_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(cmd.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// applyConfig surfaces config load failures and publishes the effective
// settings to the shared flag accessors for noun subpackages.
func applyConfig(cmd *cobra.Command, _ []string) error {
	// Skip for help and version commands
	if cmd.Name() == "help" || cmd.Name() == "version" {
		return nil
	}

	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}

	dir := bankFlag
	if dir == "" && cfg != nil {
		dir = cfg.BankDir
	}
	flags.SetBankDir(dir)

	if cfg != nil {
		flags.SetRetention(cfg.Retention)
		flags.SetRemote(cfg.Remote)
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return errors.Wrap(rootCmd.Execute(), "executing root command")
}
