package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/roach88/scriptc/internal/diag"
	"github.com/roach88/scriptc/internal/dialect"
	"github.com/roach88/scriptc/internal/ir"
	"github.com/roach88/scriptc/internal/pipeline"
	"github.com/roach88/scriptc/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output directory, or "-" for the artifact on stdout
	Hex    bool   // include artifact hex in the report
	Dump   bool   // dump the resolved program
	Jobs   int    // concurrent compiles
}

// CompiledProgram describes one artifact.
type CompiledProgram struct {
	Program     string `json:"program"`
	Source      string `json:"source"`
	Dialect     string `json:"dialect"`
	Size        int    `json:"size"`
	ScriptHash  string `json:"script_hash"`
	ProgramHash string `json:"program_hash"`
	Cached      bool   `json:"cached"`
	Path        string `json:"path,omitempty"`
	Hex         string `json:"hex,omitempty"`
}

// CompileFailure describes one program that did not compile.
type CompileFailure struct {
	Source  string `json:"source"`
	Program string `json:"program,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CompileReport is the compile command's result.
type CompileReport struct {
	Compiled []CompiledProgram `json:"compiled"`
	Failed   []CompileFailure  `json:"failed,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program.cue|dir>...",
		Short: "Compile IR programs to script artifacts",
		Long: `Compile CUE IR programs to serialized script artifacts.

Each program is resolved, lowered and serialized for its dialect: the
--dialect flag, else the program's own target, else the configured default.
With --output DIR each artifact is written to DIR/<program>.<dialect>.script.
With --output - a single artifact is written to stdout, as hex on a
terminal and raw bytes otherwise.

Exit codes:
  0 - All programs compiled
  1 - One or more programs failed to compile
  2 - Command error (invalid paths, unwritable output, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `output directory, or "-" for stdout`)
	cmd.Flags().BoolVar(&opts.Hex, "hex", false, "include artifact hex in the report")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "dump the resolved program")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "concurrent compiles (default from config, else 8)")

	return cmd
}

type compileUnit struct {
	source  string
	program *ir.Program
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output == "" {
		opts.Output = opts.Config.OutputDir
	}

	paths, err := findPrograms(args)
	if err != nil {
		_ = formatter.Error(errorCode(err, ErrCodeGeneric), err.Error(), nil)
		return WrapExitError(ExitCommandError, "finding programs", err)
	}
	if opts.Output == "-" && len(paths) != 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--output - needs exactly one program, got %d", len(paths)))
	}

	report := CompileReport{Compiled: []CompiledProgram{}}
	var units []compileUnit
	var jobs []pipeline.Job
	for _, path := range paths {
		formatter.VerboseLog("Loading %s", path)
		p, err := loadProgram(path)
		if err != nil {
			report.Failed = append(report.Failed, failure(path, "", err, ErrCodeLoadFailed))
			continue
		}
		d, err := dialectOf(p, opts.Dialect)
		if err != nil {
			report.Failed = append(report.Failed, failure(path, p.Name, err, ErrCodeDialectNeeded))
			continue
		}
		units = append(units, compileUnit{source: path, program: p})
		jobs = append(jobs, pipeline.Job{Program: p, Dialect: d})
	}

	results, err := compileJobs(ctx, opts, jobs)
	if err != nil {
		_ = formatter.Error(ErrCodeCacheFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "compiling", err)
	}

	for i, r := range results {
		u := units[i]
		if r.err != nil {
			report.Failed = append(report.Failed, failure(u.source, u.program.Name, r.err, ErrCodeGeneric))
			continue
		}
		art := r.artifact
		if opts.Dump && art.Resolved != nil {
			dumpConfig.Fdump(formatter.GetErrWriter(), art.Resolved)
		}
		if opts.Output == "-" {
			if len(report.Failed) > 0 {
				break
			}
			return writeArtifact(cmd.OutOrStdout(), art.Bytes, opts.Hex)
		}

		out := CompiledProgram{
			Program:     art.Program,
			Source:      u.source,
			Dialect:     art.Dialect.Name,
			Size:        len(art.Bytes),
			ScriptHash:  art.Hash,
			ProgramHash: art.ProgramHash,
			Cached:      r.cached,
		}
		if opts.Hex {
			out.Hex = hex.EncodeToString(art.Bytes)
		}
		if opts.Output != "" {
			path, err := writeArtifactFile(opts.Output, art)
			if err != nil {
				_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
				return WrapExitError(ExitCommandError, "writing artifact", err)
			}
			out.Path = path
		}
		report.Compiled = append(report.Compiled, out)
	}

	return outputCompileReport(formatter, report)
}

// dumpConfig renders resolved programs deterministically.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

type compileResult struct {
	artifact *pipeline.Artifact
	cached   bool
	err      error
}

// compileJobs compiles through the cache when one is configured, else
// concurrently without one. The returned error is a cache or context
// failure; compile errors are per job.
func compileJobs(ctx context.Context, opts *CompileOptions, jobs []pipeline.Job) ([]compileResult, error) {
	out := make([]compileResult, len(jobs))
	if opts.Cache != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Cache), 0o755); err != nil {
			return nil, err
		}
		st, err := store.Open(opts.Cache)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		for i, job := range jobs {
			art, hit, err := pipeline.CompileCached(ctx, st, job.Program, job.Dialect)
			var cacheErr *pipeline.CacheError
			if errors.As(err, &cacheErr) {
				return nil, err
			}
			out[i] = compileResult{artifact: art, cached: hit, err: err}
		}
		return out, nil
	}

	limit := opts.Jobs
	if limit == 0 {
		limit = opts.Config.Jobs
	}
	results, err := pipeline.CompileAll(ctx, jobs, limit)
	if err != nil {
		return nil, err
	}
	for i, r := range results {
		out[i] = compileResult{artifact: r.Artifact, err: r.Err}
	}
	return out, nil
}

func failure(source, program string, err error, fallback string) CompileFailure {
	return CompileFailure{
		Source:  source,
		Program: program,
		Code:    errorCode(err, fallback),
		Message: err.Error(),
	}
}

func diagCode(err error) string {
	return string(diag.CodeOf(err))
}

// writeArtifact writes raw bytes, or hex when asked or when w is a
// terminal.
func writeArtifact(w io.Writer, b []byte, asHex bool) error {
	if asHex || isTerminal(w) {
		_, err := fmt.Fprintln(w, hex.EncodeToString(b))
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeArtifactFile(dir string, art *pipeline.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	name := fmt.Sprintf("%s.%s.script", art.Program, strings.ToLower(art.Dialect.Version.String()))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, art.Bytes, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func outputCompileReport(formatter *OutputFormatter, report CompileReport) error {
	var failErr error
	if n := len(report.Failed); n > 0 {
		failErr = NewExitError(ExitFailure, fmt.Sprintf("%d program(s) failed to compile", n))
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report}
		if failErr != nil {
			resp.Status = "error"
			first := report.Failed[0]
			resp.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
		return failErr
	}

	w := formatter.Writer
	for _, c := range report.Compiled {
		cached := ""
		if c.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "✓ %s → %s: %d bytes, hash %s%s\n", c.Program, c.Dialect, c.Size, c.ScriptHash, cached)
		if c.Path != "" {
			fmt.Fprintf(w, "  wrote %s\n", c.Path)
		}
		if c.Hex != "" {
			fmt.Fprintf(w, "  %s\n", c.Hex)
		}
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "✗ %s\n  %s: %s\n", f.Source, f.Code, f.Message)
	}
	if failErr != nil {
		return failErr
	}
	fmt.Fprintf(w, "\nCompiled %d program(s)\n", len(report.Compiled))
	return nil
}

// dialectOf picks the dialect for a program or explains why none applies.
func dialectOf(p *ir.Program, explicit string) (*dialect.Descriptor, error) {
	d, err := pipeline.DialectFor(p, explicit)
	if err != nil {
		return nil, errors.Join(err, errors.New("pass --dialect or set dialect in scriptc.yaml"))
	}
	return d, nil
}
