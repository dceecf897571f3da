package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/abdul-hamid-achik/glint/packages/core/config"
	"github.com/abdul-hamid-achik/glint/packages/core/env"
	"github.com/abdul-hamid-achik/glint/packages/logging"
	"github.com/abdul-hamid-achik/glint/packages/telemetry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const skipSetupAnnotation = "glint/skip-setup"

var (
	configFlag   string
	logFileFlag  string
	logLevelFlag string
)

// app holds what setup prepared for the running command.
var app struct {
	config    *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	telemetry *telemetry.Provider
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"log.file":     "log-file",
	"log.level":    "log-level",
	"timeout":      "timeout",
	"proxy":        "proxy",
	"rate_limit":   "rate-limit",
	"journal.path": "journal",
}

var rootCmd = &cobra.Command{
	Use:   "glint",
	Short: "Run HTTP request collections with chained values.",
	Long: `glint executes the named requests of a TOML or YAML collection.

Request templates contain {placeholder} tokens. Each placeholder is
resolved from an environment variable, an env file, a secret store,
a file, an interactive prompt, a generated value or the response of
another request in the collection, which is executed first when needed.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI and exits with the code matching the outcome.
func Execute(v, bt string) {
	version = v
	buildTime = bt

	err := rootCmd.Execute()
	teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("Error:"), err)
	}
	os.Exit(exitCodeFor(err))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: .glint.{yaml,toml,json} in . or ~/.config/glint)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", config.DefaultLogFile, "Log file path, empty to disable (env: GLINT_LOG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error (env: GLINT_LOG_LEVEL)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(ExitUsageError, err)
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipSetupAnnotation] != "" {
		return nil
	}

	loader := config.NewLoader()
	for key, name := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := loader.BindFlag(key, flag); err != nil {
				return withExitCode(ExitConfigError, err)
			}
		}
	}

	cfg, err := loader.Load(configFlag, config.SearchDirs()...)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	app.config = cfg

	if cfg.DotEnv {
		if err := env.LoadDotEnv(".env"); err != nil {
			return withExitCode(ExitConfigError, err)
		}
	}

	logger, closer, err := logging.New(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	app.logger = logger.With(slog.String("command", cmd.Name()))
	app.logCloser = closer

	tp, err := telemetry.New(telemetry.Config{
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
		Version:  version,
	})
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("telemetry: %w", err))
	}
	tp.Install()
	app.telemetry = tp

	if used := loader.ConfigFileUsed(); used != "" {
		app.logger.Debug("config loaded", slog.String("file", used))
	}
	return nil
}

func teardown() {
	if app.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.telemetry.Shutdown(ctx); err != nil && app.logger != nil {
			app.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		cancel()
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
	}
}

// logger returns the command logger, or a discarding one before setup ran.
func logger() *slog.Logger {
	if app.logger == nil {
		return logging.Discard()
	}
	return app.logger
}
