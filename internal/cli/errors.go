package cli

import (
	"errors"

	"github.com/roach88/charsmap/internal/config"
	"github.com/roach88/charsmap/internal/rules"
	"github.com/roach88/charsmap/internal/trie"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeReadFailed    = "E002" // Input read error
	ErrCodeWriteFailed   = "E003" // Output write error
	ErrCodeParse         = "E101" // Malformed rule-table text
	ErrCodeDuplicateRule = "E102" // Contradictory rules for one source
	ErrCodeCompile       = "E103" // Compilation failed (size guard, contradiction)
	ErrCodeCorruptedBlob = "E104" // Invalid precompiled charsmap
	ErrCodeConfig        = "E105" // Zero or conflicting rule sources
)

// classifyError maps a construction-time error to its CLI error code.
func classifyError(err error) string {
	var parseErr *rules.ParseError
	if errors.As(err, &parseErr) {
		return ErrCodeParse
	}
	var dupErr *rules.DuplicateRuleError
	if errors.As(err, &dupErr) {
		return ErrCodeDuplicateRule
	}
	var compileErr *trie.CompileError
	if errors.As(err, &compileErr) {
		return ErrCodeCompile
	}
	var blobErr *trie.CorruptedBlobError
	if errors.As(err, &blobErr) {
		return ErrCodeCorruptedBlob
	}
	var configErr *config.ConfigError
	if errors.As(err, &configErr) {
		return ErrCodeConfig
	}
	return ErrCodeGeneric
}

// commandError reports err through the formatter and returns an ExitError
// carrying ExitCommandError.
func commandError(formatter *OutputFormatter, err error) error {
	code := classifyError(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}
