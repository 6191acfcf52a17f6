// Package rules holds the normalization rule model: an immutable-after-build
// mapping from source byte sequences to replacement byte sequences.
//
// A rule table is the human-editable input of the trie compiler. Tables are
// populated once (from TSV text or a built-in rule set), validated as they
// are populated, and then handed to the compiler; nothing mutates a table
// after that point.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

// Rule maps one source byte sequence to its replacement.
// An empty Target means the source is deleted from the output.
type Rule struct {
	Source []byte
	Target []byte
}

// Table is a validated set of rules with unique sources.
//
// Within one table no two rules may define different targets for the same
// source. Adding an identical (source, target) pair twice is idempotent.
type Table struct {
	targets map[string][]byte
}

// NewTable creates an empty rule table.
func NewTable() *Table {
	return &Table{targets: make(map[string][]byte)}
}

// Add inserts a rule. The source must be non-empty.
// Returns *DuplicateRuleError if the source is already mapped to a
// different target.
func (t *Table) Add(source, target []byte) error {
	if len(source) == 0 {
		return errors.New("rule source must not be empty")
	}
	key := string(source)
	if existing, ok := t.targets[key]; ok {
		if bytes.Equal(existing, target) {
			return nil
		}
		return &DuplicateRuleError{
			Source:   key,
			Existing: string(existing),
			New:      string(target),
		}
	}
	t.targets[key] = append([]byte(nil), target...)
	return nil
}

// Len returns the number of rules in the table.
func (t *Table) Len() int { return len(t.targets) }

// Target returns the replacement for an exact source, if one is defined.
func (t *Table) Target(source []byte) ([]byte, bool) {
	target, ok := t.targets[string(source)]
	return target, ok
}

// Rules returns all rules in ascending lexicographic byte order of their
// sources. This order is the canonical order used by the compiler and
// reproduced by the decompiler.
func (t *Table) Rules() []Rule {
	keys := make([]string, 0, len(t.targets))
	for key := range t.targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Rule, len(keys))
	for i, key := range keys {
		out[i] = Rule{Source: []byte(key), Target: t.targets[key]}
	}
	return out
}

// Equal reports whether two tables define the same logical rule set.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}
	for key, target := range t.targets {
		otherTarget, ok := other.targets[key]
		if !ok || !bytes.Equal(target, otherTarget) {
			return false
		}
	}
	return true
}

// ParseError reports malformed rule-table text.
type ParseError struct {
	// Line is the 1-based line number of the offending line.
	Line int

	// Message describes what was wrong with the line.
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// DuplicateRuleError reports two rules defining different targets for the
// same source.
type DuplicateRuleError struct {
	// Source is the conflicting source sequence.
	Source string

	// Existing is the target already registered for Source.
	Existing string

	// New is the contradicting target.
	New string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("duplicate rule for source %q: %q conflicts with %q",
		e.Source, e.New, e.Existing)
}

// IsDuplicateRule returns true if the error is a DuplicateRuleError.
// Uses errors.As to handle wrapped errors.
func IsDuplicateRule(err error) bool {
	var de *DuplicateRuleError
	return errors.As(err, &de)
}
