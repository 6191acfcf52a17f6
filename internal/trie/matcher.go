// Package trie compiles normalization rule tables into an immutable
// double-array trie blob, loads such blobs for longest-prefix lookup, and
// decompiles them back into rule tables.
//
// The double array is two parallel integer arrays addressed by state index
// (an arena-and-index structure, no node objects):
//   - States are indices into base/check. State 0 is unused; the root is
//     state 1.
//   - Transition on byte c: t := base[s] + label(c); valid if check[t] == s.
//   - label(c) = int(c) + 1, so labels occupy 1..256 and 0 never collides
//     with the free-slot marker in check.
//
// Terminal states carry an offset into a separate values buffer holding
// uvarint-length-prefixed target byte strings. Offset 0 means
// "not terminal"; the buffer starts with one pad byte so real records sit
// at offsets >= 1.
package trie

import "encoding/binary"

const (
	rootState = 1

	// alphabetSize is the number of distinct transition labels (1..256).
	alphabetSize = 256
)

func label(c byte) int32 { return int32(c) + 1 }

// Matcher is a loaded, validated charsmap: an immutable double-array trie
// plus its values buffer. Safe for concurrent use.
type Matcher struct {
	base     []int32
	check    []int32
	valueOff []uint32
	values   []byte
}

// NumStates returns the number of allocated state slots.
func (m *Matcher) NumStates() int { return len(m.base) }

// transition returns (nextState, ok) for one byte from state s.
func (m *Matcher) transition(s int32, c byte) (int32, bool) {
	t := m.base[s] + label(c)
	if t <= 0 || int(t) >= len(m.check) {
		return 0, false
	}
	if m.check[t] != s {
		return 0, false
	}
	return t, true
}

// valueAt reads the target record at a validated values-buffer offset.
func (m *Matcher) valueAt(off uint32) []byte {
	n, size := binary.Uvarint(m.values[off:])
	start := int(off) + size
	return m.values[start : start+int(n)]
}

// LongestPrefix finds the longest prefix of input that matches some rule
// source and returns that rule's target and the prefix length. The trie
// structure guarantees at most one longest match, so there are no ties.
func (m *Matcher) LongestPrefix(input []byte) (target []byte, n int, ok bool) {
	s := int32(rootState)
	for i, c := range input {
		next, valid := m.transition(s, c)
		if !valid {
			break
		}
		s = next
		if off := m.valueOff[s]; off != 0 {
			target = m.valueAt(off)
			n = i + 1
			ok = true
		}
	}
	return target, n, ok
}
