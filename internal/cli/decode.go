package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/scriptc/internal/flat"
	"github.com/roach88/scriptc/internal/pipeline"
	"github.com/roach88/scriptc/internal/term"
)

// DecodedArtifact is the decode command's result.
type DecodedArtifact struct {
	Source     string `json:"source"`
	Dialect    string `json:"dialect"`
	Language   string `json:"language_version"`
	Size       int    `json:"size"`
	ScriptHash string `json:"script_hash"`
	Nodes      int    `json:"nodes"`
	Term       string `json:"term"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <artifact|->",
		Short: "Decode a script artifact to its textual term",
		Long: `Decode a serialized script artifact and print its term.

The artifact may be raw bytes or hex text; "-" reads standard input.
Decoding checks the header, every constant and every variable binding;
any malformed input is rejected with MALFORMED_ARTIFACT.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var raw []byte
	var err error
	if source == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading artifact", err)
	}
	b := artifactBytes(raw)

	t, d, err := flat.Decode(b)
	if err != nil {
		_ = formatter.Error(errorCode(err, ErrCodeDecodeFailed), err.Error(), nil)
		return WrapExitError(ExitFailure, "decoding artifact", err)
	}
	hash, err := pipeline.ScriptHash(b)
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing artifact", err)
	}

	out := DecodedArtifact{
		Source:     source,
		Dialect:    d.Name,
		Language:   d.LanguageVersionString(),
		Size:       len(b),
		ScriptHash: hash,
		Nodes:      term.Size(t),
		Term:       term.String(t),
	}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "dialect:  %s (language %s)\n", out.Dialect, out.Language)
	fmt.Fprintf(w, "size:     %d bytes, %d nodes\n", out.Size, out.Nodes)
	fmt.Fprintf(w, "hash:     %s\n", out.ScriptHash)
	fmt.Fprintln(w, out.Term)
	return nil
}

// artifactBytes accepts hex text as well as raw artifact bytes.
func artifactBytes(raw []byte) []byte {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 || len(text)%2 != 0 {
		return raw
	}
	b := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(b, text); err != nil {
		return raw
	}
	return b
}
