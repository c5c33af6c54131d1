// Package cli implements the mcptape command tree. Commands are thin
// lifecycle glue around the capture, trace, and replay packages.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcptape/mcptape/pkg/config"
	"github.com/mcptape/mcptape/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	traceFile  string
	logLevel   string
	logFormat  string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcptape",
	Short: "mcptape records MCP sessions and replays them as mock servers",
	Long: `mcptape is a call-capture and deterministic-replay tool for MCP servers.

Record a conversation with a real server, persist it as an append-only trace
file, and later serve an identical mock from the recording alone — no network
access or original server required.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "Trace file path (default: mcptape.ndjson)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")
}

// loadConfig resolves the effective configuration: defaults, then the config
// file if given, then flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if traceFile != "" {
		cfg.TraceFile = traceFile
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// newLogger builds the logger for a command. Output goes to stderr so stdout
// stays clean for protocol traffic and command output.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})
}
