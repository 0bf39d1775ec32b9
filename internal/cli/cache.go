package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptc/internal/store"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the artifact cache",
		Long: `Inspect or clear the artifact cache named by --cache or the cache
setting in scriptc.yaml.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "stats",
		Short:         "Show cache totals",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(f *OutputFormatter, st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(stats)
				}
				fmt.Fprintf(f.Writer, "artifacts: %d (%d bytes)\nbuilds:    %d (%d failed)\n",
					stats.Artifacts, stats.Bytes, stats.Builds, stats.Failed)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List cached artifacts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(f *OutputFormatter, st *store.Store) error {
				artifacts, err := st.Artifacts(cmd.Context())
				if err != nil {
					return err
				}
				if f.Format == "json" {
					rows := make([]map[string]any, len(artifacts))
					for i, a := range artifacts {
						rows[i] = map[string]any{
							"program":      a.ProgramName,
							"dialect":      a.Dialect,
							"program_hash": a.ProgramHash,
							"script_hash":  a.ScriptHash,
							"size":         len(a.Bytes),
						}
					}
					return f.Success(rows)
				}
				for _, a := range artifacts {
					fmt.Fprintf(f.Writer, "%s\t%s\t%d bytes\t%s\n", a.ProgramName, a.Dialect, len(a.Bytes), a.ScriptHash)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "log [program]",
		Short:         "Show the build log",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			program := ""
			if len(args) == 1 {
				program = args[0]
			}
			return withCache(rootOpts, cmd, func(f *OutputFormatter, st *store.Store) error {
				builds, err := st.Builds(cmd.Context(), program)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(builds)
				}
				for _, b := range builds {
					detail := b.ScriptHash
					if b.Status == store.StatusFailed {
						detail = b.ErrorCode
					}
					fmt.Fprintf(f.Writer, "%d\t%s\t%s\t%s\t%s\n", b.Seq, b.ProgramName, b.Dialect, b.Status, detail)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Remove every cached artifact and build record",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(rootOpts, cmd, func(f *OutputFormatter, st *store.Store) error {
				if err := st.Clear(cmd.Context()); err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(map[string]bool{"cleared": true})
				}
				fmt.Fprintln(f.Writer, "✓ Cache cleared")
				return nil
			})
		},
	})

	return cmd
}

// withCache opens the configured cache, runs fn and maps its failure to a
// command error.
func withCache(opts *RootOptions, cmd *cobra.Command, fn func(*OutputFormatter, *store.Store) error) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Cache == "" {
		_ = formatter.Error(ErrCodeCacheFailed, "no cache configured: pass --cache or set cache in scriptc.yaml", nil)
		return NewExitError(ExitCommandError, "no cache configured")
	}
	st, err := store.Open(opts.Cache)
	if err != nil {
		_ = formatter.Error(ErrCodeCacheFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening cache", err)
	}
	defer st.Close()

	if err := fn(formatter, st); err != nil {
		_ = formatter.Error(ErrCodeCacheFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cache", err)
	}
	return nil
}
