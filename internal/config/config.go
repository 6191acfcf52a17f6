// Package config resolves which compiled trie and behavior flags a
// normalization engine is built with.
//
// Exactly one of {rule name, rule TSV, precompiled bytes} is the
// authoritative rule source for a given engine construction. The two
// operating modes of the external drivers map onto UseInternal:
// "as trained" keeps the supplied flag set as-is, "normalizer only"
// neutralizes the embedded flags in favor of explicit caller choices.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/charsmap/internal/normalizer"
	"github.com/roach88/charsmap/internal/rules"
	"github.com/roach88/charsmap/internal/trie"
)

// Options selects the rule source and behavior flags for one engine.
type Options struct {
	// RuleName names a built-in rule set ("identity" or "nfkc").
	RuleName string

	// RuleTSV supplies rule-table text to parse and compile.
	RuleTSV io.Reader

	// Precompiled supplies an already compiled charsmap blob.
	Precompiled []byte

	// UseInternal selects "as trained" mode: the flag fields below are
	// applied exactly as given, and Precompiled takes precedence over
	// any other rule source instead of conflicting with it.
	//
	// When false ("normalizer only" mode), AddDummyPrefix and
	// EscapeWhitespaces are forced off and only RemoveExtraWhitespaces
	// is honored, giving a neutral pass-through flag set.
	UseInternal bool

	AddDummyPrefix         bool
	EscapeWhitespaces      bool
	RemoveExtraWhitespaces bool
}

// ConfigError reports zero or conflicting rule sources.
type ConfigError struct {
	// Sources lists the rule sources that were supplied.
	Sources []string
}

func (e *ConfigError) Error() string {
	if len(e.Sources) == 0 {
		return "no rule source: set a rule name, a rule TSV, or precompiled bytes"
	}
	return fmt.Sprintf("conflicting rule sources: %s (supply exactly one)",
		strings.Join(e.Sources, ", "))
}

// IsConfigError returns true if the error is a ConfigError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Resolve builds a normalization engine from the options.
//
// All construction-time failures surface here as their typed errors:
// *ConfigError (rule source selection), *rules.ParseError and
// *rules.DuplicateRuleError (TSV), *trie.CompileError (compilation), and
// *trie.CorruptedBlobError (precompiled bytes, validated before the
// engine is returned).
func Resolve(o Options) (*normalizer.Engine, error) {
	blob, err := resolveBlob(o)
	if err != nil {
		return nil, err
	}

	spec := normalizer.Spec{PrecompiledCharsMap: blob}
	if o.UseInternal {
		spec.AddDummyPrefix = o.AddDummyPrefix
		spec.EscapeWhitespaces = o.EscapeWhitespaces
		spec.RemoveExtraWhitespaces = o.RemoveExtraWhitespaces
	} else {
		spec.RemoveExtraWhitespaces = o.RemoveExtraWhitespaces
	}

	return normalizer.New(spec)
}

func resolveBlob(o Options) ([]byte, error) {
	var sources []string
	if o.RuleName != "" {
		sources = append(sources, fmt.Sprintf("rule name %q", o.RuleName))
	}
	if o.RuleTSV != nil {
		sources = append(sources, "rule TSV")
	}
	if len(o.Precompiled) > 0 {
		sources = append(sources, "precompiled bytes")
	}

	switch {
	case len(sources) == 0:
		return nil, &ConfigError{}
	case len(sources) > 1:
		// "Use precompiled as-is" resolves the conflict in favor of the
		// precompiled bytes; anything else is an error.
		if !(o.UseInternal && len(o.Precompiled) > 0) {
			return nil, &ConfigError{Sources: sources}
		}
	}

	switch {
	case len(o.Precompiled) > 0:
		return o.Precompiled, nil
	case o.RuleTSV != nil:
		table, err := rules.Parse(o.RuleTSV)
		if err != nil {
			return nil, err
		}
		return trie.Compile(table)
	default:
		table, err := rules.Builtin(o.RuleName)
		if err != nil {
			return nil, err
		}
		return trie.Compile(table)
	}
}
