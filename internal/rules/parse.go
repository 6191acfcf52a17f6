package rules

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule-table text format:
//
//	<source><TAB><target>
//
// One rule per line. The source field is required; a missing target field
// means deletion. Each field is a run of space-separated hex code point
// values ("41 302" is U+0041 U+0302, UTF-8 encoded). A field containing a
// token that does not parse as hex is taken as literal UTF-8 text instead.
// Blank lines and lines starting with '#' are skipped.

const commentMarker = "#"

// Parse reads rule-table text and returns a validated table.
//
// Fails with *ParseError on malformed lines (too many fields, empty
// source) and with *DuplicateRuleError when the same source appears twice
// with different targets. Identical duplicates are accepted.
func Parse(r io.Reader) (*Table, error) {
	table := NewTable()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) > 2 {
			return nil, &ParseError{
				Line:    lineNo,
				Message: fmt.Sprintf("expected 1 or 2 tab-separated fields, got %d", len(fields)),
			}
		}

		source := decodeField(fields[0])
		if len(source) == 0 {
			return nil, &ParseError{Line: lineNo, Message: "empty source field"}
		}

		var target []byte
		if len(fields) == 2 {
			target = decodeField(fields[1])
		}

		if err := table.Add(source, target); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rule table: %w", err)
	}

	return table, nil
}

// ParseString is a convenience wrapper around Parse for in-memory text.
func ParseString(text string) (*Table, error) {
	return Parse(strings.NewReader(text))
}

// Write emits the table as canonical TSV: hex code point encoding, one
// rule per line, rules in lexicographic source order. Parsing the output
// reproduces the table for any rule set whose sequences are valid UTF-8.
func (t *Table) Write(w io.Writer) error {
	for _, rule := range t.Rules() {
		line := encodeField(rule.Source)
		if len(rule.Target) > 0 {
			line += "\t" + encodeField(rule.Target)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing rule table: %w", err)
		}
	}
	return nil
}

// decodeField interprets a TSV field as space-separated hex code points,
// falling back to the literal text when any token is not valid hex.
func decodeField(field string) []byte {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	tokens := strings.Fields(field)
	decoded := make([]byte, 0, len(tokens)*utf8.UTFMax)
	for _, token := range tokens {
		cp, err := strconv.ParseUint(token, 16, 32)
		if err != nil || cp > utf8.MaxRune {
			return []byte(field)
		}
		decoded = utf8.AppendRune(decoded, rune(cp))
	}
	return decoded
}

// encodeField renders a byte sequence as space-separated hex code points.
// Bytes that are not part of a valid UTF-8 encoding are emitted as their
// own byte value.
func encodeField(seq []byte) string {
	var sb strings.Builder
	for i := 0; i < len(seq); {
		r, size := utf8.DecodeRune(seq[i:])
		if r == utf8.RuneError && size == 1 {
			r = rune(seq[i])
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%X", r)
		i += size
	}
	return sb.String()
}
