package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/charsmap/internal/config"
	"github.com/roach88/charsmap/internal/rules"
	"github.com/roach88/charsmap/internal/testutil"
	"github.com/roach88/charsmap/internal/trie"
)

func TestResolve_NoRuleSource(t *testing.T) {
	_, err := config.Resolve(config.Options{})
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
	assert.Contains(t, err.Error(), "no rule source")
}

func TestResolve_ConflictingRuleSources(t *testing.T) {
	_, err := config.Resolve(config.Options{
		RuleName: "identity",
		RuleTSV:  strings.NewReader("41\t61\n"),
	})
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}

func TestResolve_PrecompiledWinsWithUseInternal(t *testing.T) {
	blob := testutil.MustCompile(t, map[string]string{"a": "X"})

	engine, err := config.Resolve(config.Options{
		RuleName:    "identity",
		Precompiled: blob,
		UseInternal: true,
	})
	require.NoError(t, err)

	output, _ := engine.NormalizeString("abc")
	assert.Equal(t, "Xbc", output, "precompiled bytes take precedence in as-is mode")
}

func TestResolve_PrecompiledConflictWithoutUseInternal(t *testing.T) {
	blob := testutil.MustCompile(t, map[string]string{"a": "X"})

	_, err := config.Resolve(config.Options{
		RuleName:    "identity",
		Precompiled: blob,
	})
	require.Error(t, err)
	assert.True(t, config.IsConfigError(err))
}

func TestResolve_NormalizerOnlyModeNeutralizesFlags(t *testing.T) {
	engine, err := config.Resolve(config.Options{
		RuleName:               "identity",
		AddDummyPrefix:         true,
		EscapeWhitespaces:      true,
		RemoveExtraWhitespaces: true,
	})
	require.NoError(t, err)

	spec := engine.Spec()
	assert.False(t, spec.AddDummyPrefix)
	assert.False(t, spec.EscapeWhitespaces)
	assert.True(t, spec.RemoveExtraWhitespaces, "caller override still applies")

	output, _ := engine.NormalizeString("a  b")
	assert.Equal(t, "a b", output)
}

func TestResolve_AsTrainedModeKeepsFlags(t *testing.T) {
	engine, err := config.Resolve(config.Options{
		RuleName:          "identity",
		UseInternal:       true,
		AddDummyPrefix:    true,
		EscapeWhitespaces: true,
	})
	require.NoError(t, err)

	output, _ := engine.NormalizeString("hi")
	assert.Equal(t, "▁hi", output)
}

func TestResolve_RuleTSVCompiled(t *testing.T) {
	engine, err := config.Resolve(config.Options{
		RuleTSV: strings.NewReader("61 62\t58\n"),
	})
	require.NoError(t, err)

	output, _ := engine.NormalizeString("abab")
	assert.Equal(t, "XX", output)
}

func TestResolve_MalformedTSVSurfacesParseError(t *testing.T) {
	_, err := config.Resolve(config.Options{
		RuleTSV: strings.NewReader("61\t62\t63\n"),
	})
	var parseErr *rules.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestResolve_CorruptedPrecompiledRejected(t *testing.T) {
	blob := testutil.MustCompile(t, map[string]string{"a": "X"})
	blob[5] ^= 0xff

	_, err := config.Resolve(config.Options{
		Precompiled: blob,
		UseInternal: true,
	})
	require.Error(t, err)
	assert.True(t, trie.IsCorruptedBlob(err))
}

func TestResolve_UnknownRuleName(t *testing.T) {
	_, err := config.Resolve(config.Options{RuleName: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
