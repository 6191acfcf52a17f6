package rules

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HexCodePoints(t *testing.T) {
	table, err := ParseString("41 42\t61\n")
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	target, ok := table.Target([]byte("AB"))
	require.True(t, ok)
	assert.Equal(t, []byte("a"), target)
}

func TestParse_MultiByteCodePoints(t *testing.T) {
	// U+00C5 (Å) decomposed as A + combining ring -> precomposed form.
	table, err := ParseString("41 30A\tC5\n")
	require.NoError(t, err)

	target, ok := table.Target([]byte("Å"))
	require.True(t, ok)
	assert.Equal(t, []byte("Å"), target)
}

func TestParse_MissingTargetMeansDeletion(t *testing.T) {
	table, err := ParseString("200B\n")
	require.NoError(t, err)

	target, ok := table.Target([]byte("​"))
	require.True(t, ok)
	assert.Empty(t, target, "absent second field should map to deletion")
}

func TestParse_CommentsAndBlankLinesIgnored(t *testing.T) {
	input := "# normalization rules\n\n41\t61\n\n# trailing comment\n"
	table, err := ParseString(input)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestParse_TooManyFields(t *testing.T) {
	_, err := ParseString("41\t61\t62\n")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
}

func TestParse_EmptySource(t *testing.T) {
	_, err := ParseString("41\t61\n\t62\n")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}

func TestParse_DuplicateIdenticalRuleIsIdempotent(t *testing.T) {
	table, err := ParseString("41\t61\n41\t61\n")
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestParse_ConflictingDuplicateRejected(t *testing.T) {
	_, err := ParseString("41\t61\n41\t62\n")
	require.Error(t, err)
	assert.True(t, IsDuplicateRule(err))

	var dupErr *DuplicateRuleError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "A", dupErr.Source)
}

func TestWrite_CanonicalOrderRoundTrip(t *testing.T) {
	// Deliberately unsorted input.
	table, err := ParseString("42\t78\n41\t79\nFB01\t66 69\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.Write(&buf))
	assert.Equal(t, "41\t79\n42\t78\nFB01\t66 69\n", buf.String())

	reparsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.True(t, table.Equal(reparsed))
}

func TestRules_SortedLexicographically(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Add([]byte("b"), []byte("2")))
	require.NoError(t, table.Add([]byte("ab"), []byte("1")))
	require.NoError(t, table.Add([]byte("a"), []byte("0")))

	sorted := table.Rules()
	require.Len(t, sorted, 3)
	assert.Equal(t, []byte("a"), sorted[0].Source)
	assert.Equal(t, []byte("ab"), sorted[1].Source)
	assert.Equal(t, []byte("b"), sorted[2].Source)
}
