// Package testutil provides fixture helpers shared across package tests.
package testutil

import (
	"testing"

	"github.com/roach88/charsmap/internal/normalizer"
	"github.com/roach88/charsmap/internal/rules"
	"github.com/roach88/charsmap/internal/trie"
)

// MustTable builds a rule table from source→target pairs, failing the
// test on any invalid rule.
func MustTable(t *testing.T, pairs map[string]string) *rules.Table {
	t.Helper()
	table := rules.NewTable()
	for source, target := range pairs {
		if err := table.Add([]byte(source), []byte(target)); err != nil {
			t.Fatalf("adding rule %q -> %q: %v", source, target, err)
		}
	}
	return table
}

// MustCompile compiles source→target pairs into a charsmap blob.
func MustCompile(t *testing.T, pairs map[string]string) []byte {
	t.Helper()
	blob, err := trie.Compile(MustTable(t, pairs))
	if err != nil {
		t.Fatalf("compiling rules: %v", err)
	}
	return blob
}

// MustEngine builds a normalization engine, failing the test on error.
func MustEngine(t *testing.T, spec normalizer.Spec) *normalizer.Engine {
	t.Helper()
	engine, err := normalizer.New(spec)
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	return engine
}
