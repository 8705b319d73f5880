package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/evtxkit/internal/logger"
	"github.com/joshuapare/evtxkit/pkg/types"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	logLevel   string
	logDir     string
	configPath string

	// cfg is the loaded configuration, DefaultConfig when --config is unset.
	cfg = DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "evtxctl",
	Short: "Decode and split Windows event log (EVTX) files",
	Long: `evtxctl decodes Windows XML event log files (.evtx) and renders their
records as XML. It reports header and chunk health, dumps records, and splits
logs into per-record, per-chunk or per-file documents while quarantining
chunks that fail validation.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write logs to a dated file in this directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
}

// setup loads the configuration file and initializes logging. Flags given
// on the command line win over the file.
func setup(cmd *cobra.Command, _ []string) error {
	if noColor {
		disableColor()
	}
	cfg = DefaultConfig()
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	opts := logger.Options{Writer: os.Stderr, LogDir: logDir, JSON: jsonOut}
	switch {
	case verbose:
		opts.Enabled = true
		opts.Level = slog.LevelDebug
	case level != "":
		l, err := logger.ParseLevel(level)
		if err != nil {
			return err
		}
		opts.Enabled = true
		opts.Level = l
	}
	return logger.Init(opts)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error categories to distinct process exit codes.
func exitCode(err error) int {
	kind, ok := types.KindOf(err)
	if !ok {
		return 1
	}
	switch kind {
	case types.ErrKindFormat:
		return 2
	case types.ErrKindChecksum, types.ErrKindCorrupt, types.ErrKindTruncated, types.ErrKindUnsupported:
		return 3
	case types.ErrKindWrite:
		return 4
	}
	return 1
}

// openOptions returns decoder options wired to the CLI logger.
func openOptions(resync bool) types.OpenOptions {
	return types.OpenOptions{Logger: logger.L, ResyncRecords: resync}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
