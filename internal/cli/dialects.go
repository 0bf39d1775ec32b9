package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptc/internal/dialect"
)

// DialectInfo summarizes one dialect.
type DialectInfo struct {
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	Tag             byte          `json:"tag"`
	LanguageVersion string        `json:"language_version"`
	Kinds           []string      `json:"kinds"`
	BuiltinCount    int           `json:"builtin_count"`
	Builtins        []BuiltinInfo `json:"builtins,omitempty"`
}

// BuiltinInfo describes one builtin operator.
type BuiltinInfo struct {
	Name   string `json:"name"`
	Code   uint64 `json:"code"`
	Arity  int    `json:"arity"`
	Forces int    `json:"forces"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(rootOpts *RootOptions) *cobra.Command {
	var showBuiltins bool
	cmd := &cobra.Command{
		Use:   "dialects [name]",
		Short: "List target dialects",
		Long: `List the target dialects with their header tag, language version and
primitive kinds. Naming a dialect, or passing --builtins, also lists its
builtin operators.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			descriptors := dialect.All()
			if len(args) == 1 {
				d, err := dialect.Lookup(args[0])
				if err != nil {
					_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
					return WrapExitError(ExitCommandError, "unknown dialect", err)
				}
				descriptors = []*dialect.Descriptor{d}
				showBuiltins = true
			}

			infos := make([]DialectInfo, len(descriptors))
			for i, d := range descriptors {
				infos[i] = describeDialect(d, showBuiltins)
			}
			if formatter.Format == "json" {
				return formatter.Success(infos)
			}
			return printDialects(formatter, infos)
		},
	}
	cmd.Flags().BoolVar(&showBuiltins, "builtins", false, "list builtin operators")
	return cmd
}

func describeDialect(d *dialect.Descriptor, withBuiltins bool) DialectInfo {
	info := DialectInfo{
		Name:            d.Name,
		Version:         strings.ToLower(d.Version.String()),
		Tag:             d.Tag,
		LanguageVersion: d.LanguageVersionString(),
		Kinds:           []string{},
	}
	for _, k := range d.Kinds() {
		info.Kinds = append(info.Kinds, k.String())
	}
	builtins := d.Builtins()
	info.BuiltinCount = len(builtins)
	if withBuiltins {
		for _, b := range builtins {
			info.Builtins = append(info.Builtins, BuiltinInfo{Name: b.Name, Code: b.Code, Arity: b.Arity, Forces: b.Forces})
		}
	}
	return info
}

func printDialects(formatter *OutputFormatter, infos []DialectInfo) error {
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tTAG\tLANGUAGE\tBUILTINS\tKINDS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t0x%02x\t%s\t%d\t%s\n",
			info.Name, info.Version, info.Tag, info.LanguageVersion, info.BuiltinCount, strings.Join(info.Kinds, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, info := range infos {
		if len(info.Builtins) == 0 {
			continue
		}
		fmt.Fprintf(formatter.Writer, "\n%s builtins:\n", info.Name)
		tw = tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  CODE\tNAME\tARITY\tFORCES")
		for _, b := range info.Builtins {
			fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\n", b.Code, b.Name, b.Arity, b.Forces)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
