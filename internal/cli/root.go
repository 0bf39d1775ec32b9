// Package cli implements the scriptc command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptc/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Dialect    string
	Cache      string
	ConfigPath string

	// Config is the merged project configuration, set before any
	// subcommand runs.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scriptc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scriptc",
		Short: "scriptc - typed IR to on-chain script compiler",
		Long: `Compile typed IR programs to untyped on-chain script artifacts.

Programs are CUE documents describing the IR. Each compile targets one
dialect; the artifact's header records which.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect (v1|v2|v3); overrides the program's target")
	cmd.PersistentFlags().StringVar(&opts.Cache, "cache", "", "artifact cache database path")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.FileName, "project config file")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// setup merges the config file under explicitly set flags, validates the
// result and installs the process logger.
func (opts *RootOptions) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	cfg, err := config.Load(opts.ConfigPath, !flags.Changed("config"))
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	if flags.Changed("verbose") {
		cfg.Verbose = opts.Verbose
	}
	if flags.Changed("format") {
		cfg.Format = opts.Format
	}
	if flags.Changed("dialect") {
		cfg.Dialect = opts.Dialect
	}
	if flags.Changed("cache") {
		cfg.Cache = opts.Cache
	}

	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	opts.Config = cfg
	opts.Verbose = cfg.Verbose
	opts.Format = cfg.Format
	opts.Dialect = cfg.Dialect
	opts.Cache = cfg.Cache

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Verbose))
	return nil
}

// newLogger logs to w: debug and up when verbose, warnings only otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
