package rules

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Built-in rule set names.
const (
	RuleNameIdentity = "identity"
	RuleNameNFKC     = "nfkc"
)

// BuiltinNames lists the rule set names accepted by Builtin.
var BuiltinNames = []string{RuleNameIdentity, RuleNameNFKC}

// Builtin returns the named built-in rule table.
//
// "identity" is the empty table: every byte passes through unchanged.
// "nfkc" maps each code point whose NFKC form differs from itself to that
// form, yielding a purely table-driven approximation of NFKC: the engine
// applying it never consults Unicode data, only the compiled table.
func Builtin(name string) (*Table, error) {
	switch name {
	case RuleNameIdentity:
		return NewTable(), nil
	case RuleNameNFKC:
		return nfkcTable()
	default:
		return nil, fmt.Errorf("unknown rule set name %q (choose from %v)", name, BuiltinNames)
	}
}

func nfkcTable() (*Table, error) {
	table := NewTable()
	buf := make([]byte, 0, utf8.UTFMax)
	for r := rune(0); r <= unicode.MaxRune; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue // surrogates are not encodable
		}
		buf = utf8.AppendRune(buf[:0], r)
		mapped := norm.NFKC.Bytes(buf)
		if string(mapped) == string(buf) {
			continue
		}
		if err := table.Add(append([]byte(nil), buf...), mapped); err != nil {
			return nil, err
		}
	}
	return table, nil
}
