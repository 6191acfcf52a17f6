package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/charsmap/internal/rules"
	"github.com/roach88/charsmap/internal/trie"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output blob path
}

// CompileResult summarizes a successful compilation.
type CompileResult struct {
	Rules    int    `json:"rules"`
	States   int    `json:"states"`
	BlobSize int    `json:"blob_size"`
	Output   string `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules.tsv>",
		Short: "Compile a rule table to a charsmap blob",
		Long: `Compile parses a tab-separated rule table and emits the compiled
double-array trie blob. Compilation is canonical: the same logical rule
set always produces a byte-identical blob, regardless of line order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Errors go through our own formatter
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output blob path (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runCompile(opts *CompileOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	f, err := os.Open(rulesPath)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("opening rule table: %v", err), nil)
		return WrapExitError(ExitCommandError, ErrCodeReadFailed, err)
	}
	defer f.Close()

	table, err := rules.Parse(f)
	if err != nil {
		return commandError(formatter, err)
	}
	formatter.VerboseLog("Parsed %d rule(s) from %s", table.Len(), rulesPath)

	blob, err := trie.Compile(table)
	if err != nil {
		return commandError(formatter, err)
	}

	if err := os.WriteFile(opts.Output, blob, 0644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing blob: %v", err), nil)
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}

	matcher, err := trie.Load(blob)
	if err != nil {
		// A blob we just compiled must load; treat anything else as a bug.
		return commandError(formatter, err)
	}

	result := &CompileResult{
		Rules:    table.Len(),
		States:   matcher.NumStates(),
		BlobSize: len(blob),
		Output:   opts.Output,
	}
	return outputCompileSuccess(formatter, result)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d rule(s): %d state(s), %d byte(s)\n",
		result.Rules, result.States, result.BlobSize)
	fmt.Fprintf(formatter.Writer, "Wrote charsmap blob to %s\n", result.Output)
	return nil
}
