package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/charsmap/internal/config"
	"github.com/roach88/charsmap/internal/logger"
	"github.com/roach88/charsmap/internal/normalizer"
	"github.com/roach88/charsmap/internal/textio"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	RuleName               string
	RuleTSV                string
	Compiled               string
	UseInternal            bool
	AddDummyPrefix         bool
	EscapeWhitespaces      bool
	RemoveExtraWhitespaces bool
	Output                 string
}

// NormalizeResult summarizes a normalize run for JSON output.
type NormalizeResult struct {
	Lines  int    `json:"lines"`
	Inputs int    `json:"inputs"`
	Output string `json:"output"`
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize [file...]",
		Short: "Normalize text line by line",
		Long: `Normalize reads lines from the given files (or stdin when none are
given), applies the configured normalization rules to each line, and
writes the normalized lines to --output or stdout.

The rule source is exactly one of --rule-name, --rule-tsv, or --compiled.
Without --use-internal the engine runs in "normalizer only" mode: dummy
prefix insertion and whitespace escaping are off and only
--remove-extra-whitespaces applies. With --use-internal the flag set is
used exactly as given ("as trained" mode).`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RuleName, "rule-name", "", "built-in rule set name (identity|nfkc)")
	cmd.Flags().StringVar(&opts.RuleTSV, "rule-tsv", "", "rule table TSV file")
	cmd.Flags().StringVar(&opts.Compiled, "compiled", "", "precompiled charsmap blob file")
	cmd.Flags().BoolVar(&opts.UseInternal, "use-internal", false, "apply the flag set as-is instead of normalizer-only mode")
	cmd.Flags().BoolVar(&opts.AddDummyPrefix, "add-dummy-prefix", true, "insert a leading whitespace unit (with --use-internal)")
	cmd.Flags().BoolVar(&opts.EscapeWhitespaces, "escape-whitespaces", true, "replace spaces with the whitespace marker (with --use-internal)")
	cmd.Flags().BoolVar(&opts.RemoveExtraWhitespaces, "remove-extra-whitespaces", true, "collapse whitespace runs")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (default stdout)")

	return cmd
}

func runNormalize(opts *NormalizeOptions, inputs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	log := logger.Nop()
	if opts.Verbose {
		log = logger.New(formatter.GetErrWriter(), opts.LogLevel)
	}

	if opts.Format == "json" && opts.Output == "" {
		err := errors.New("--format json requires --output so normalized lines do not mix into the JSON response")
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}

	engine, err := resolveEngine(opts, log)
	if err != nil {
		return commandError(formatter, err)
	}

	out := formatter.Writer
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("creating output: %v", err), nil)
			return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
		}
		defer f.Close()
		out = f
	}
	writer := textio.NewLineWriter(out)

	if len(inputs) == 0 {
		inputs = []string{"-"} // stdin
	}

	lines := 0
	for _, name := range inputs {
		n, err := normalizeStream(engine, writer, name, cmd.InOrStdin())
		lines += n
		if err != nil {
			_ = formatter.Error(ErrCodeReadFailed, err.Error(), nil)
			return WrapExitError(ExitFailure, ErrCodeReadFailed, err)
		}
		log.Debug("normalized input", "file", name, "lines", n)
	}

	if formatter.Format == "json" {
		return formatter.Success(&NormalizeResult{Lines: lines, Inputs: len(inputs), Output: opts.Output})
	}
	formatter.VerboseLog("Normalized %d line(s) from %d input(s)", lines, len(inputs))
	return nil
}

func resolveEngine(opts *NormalizeOptions, log logger.Logger) (*normalizer.Engine, error) {
	resolveOpts := config.Options{
		RuleName:               opts.RuleName,
		UseInternal:            opts.UseInternal,
		AddDummyPrefix:         opts.AddDummyPrefix,
		EscapeWhitespaces:      opts.EscapeWhitespaces,
		RemoveExtraWhitespaces: opts.RemoveExtraWhitespaces,
	}

	if opts.RuleTSV != "" {
		f, openErr := os.Open(opts.RuleTSV)
		if openErr != nil {
			return nil, fmt.Errorf("opening rule TSV: %w", openErr)
		}
		defer f.Close()
		resolveOpts.RuleTSV = f
	}
	if opts.Compiled != "" {
		blob, readErr := os.ReadFile(opts.Compiled)
		if readErr != nil {
			return nil, fmt.Errorf("reading compiled blob: %w", readErr)
		}
		resolveOpts.Precompiled = blob
	}

	log.Debug("resolving normalizer",
		"rule_name", opts.RuleName, "rule_tsv", opts.RuleTSV,
		"compiled", opts.Compiled, "use_internal", opts.UseInternal)
	return config.Resolve(resolveOpts)
}

func normalizeStream(engine *normalizer.Engine, writer textio.LineWriter, name string, stdin io.Reader) (int, error) {
	var r io.Reader
	if name == "-" {
		r = stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return 0, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	reader := textio.NewLineReader(r)
	lines := 0
	for {
		line, err := reader.ReadLine()
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, fmt.Errorf("reading %s: %w", name, err)
		}
		normalized, _ := engine.NormalizeString(line)
		if err := writer.WriteLine(normalized); err != nil {
			return lines, err
		}
		lines++
	}
}
