package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/charsmap/internal/trie"
)

// DecompileOptions holds flags for the decompile command.
type DecompileOptions struct {
	*RootOptions
	Output string // output TSV path; empty writes to stdout
}

// DecompileResult summarizes a successful decompilation.
type DecompileResult struct {
	Rules  int    `json:"rules"`
	TSV    string `json:"tsv,omitempty"`
	Output string `json:"output,omitempty"`
}

// NewDecompileCommand creates the decompile command.
func NewDecompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decompile <blob>",
		Short: "Decompile a charsmap blob back to rule TSV",
		Long: `Decompile reads a compiled charsmap blob and reconstructs the rule
table as canonical TSV, one rule per line in lexicographic source order.
The blob is fully validated before any rule is emitted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output TSV path (default stdout)")

	return cmd
}

func runDecompile(opts *DecompileOptions, blobPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	blob, err := os.ReadFile(blobPath)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("reading blob: %v", err), nil)
		return WrapExitError(ExitCommandError, ErrCodeReadFailed, err)
	}

	table, err := trie.Decompile(blob)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("Decompiled %d rule(s) from %s", table.Len(), blobPath)

	var tsv bytes.Buffer
	if err := table.Write(&tsv); err != nil {
		return commandError(formatter, err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, tsv.Bytes(), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing TSV: %v", err), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
		if formatter.Format == "json" {
			return formatter.Success(&DecompileResult{Rules: table.Len(), Output: opts.Output})
		}
		fmt.Fprintf(formatter.Writer, "✓ Decompiled %d rule(s)\n", table.Len())
		fmt.Fprintf(formatter.Writer, "Wrote rule table to %s\n", opts.Output)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(&DecompileResult{Rules: table.Len(), TSV: tsv.String()})
	}
	_, err = formatter.Writer.Write(tsv.Bytes())
	return err
}
