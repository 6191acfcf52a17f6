package trie

import (
	"github.com/roach88/charsmap/internal/rules"
)

// Decompile reconstructs the rule table encoded in a charsmap blob.
//
// It walks every reachable terminal state in ascending label order, which
// reproduces the compiler's canonical lexicographic rule order, so
// Decompile(Compile(t)) is mapping-equal to t for any valid table. The
// blob goes through the same full validation as Load.
//
// The walk is iterative with an explicit stack: the blob is untrusted and
// may declare up to maxStateCount states, far deeper than recursion could
// survive.
func Decompile(blob []byte) (*rules.Table, error) {
	m, err := Load(blob)
	if err != nil {
		return nil, err
	}

	table := rules.NewTable()

	// One frame per state on the current path; label is the next byte
	// value to try from that state. Each slot of the double array has
	// exactly one parent, so a well-formed path never revisits a state
	// and the depth guard only trips on blobs faking a longer chain.
	type frame struct {
		state int32
		label int
	}
	stack := make([]frame, 1, 64)
	stack[0] = frame{state: rootState}
	key := make([]byte, 0, 64)

	for len(stack) > 0 {
		f := &stack[len(stack)-1]

		if f.label == 0 {
			if off := m.valueOff[f.state]; off != 0 {
				if len(key) == 0 {
					return nil, &CorruptedBlobError{Reason: "root state marked terminal"}
				}
				if err := table.Add(append([]byte(nil), key...), m.valueAt(off)); err != nil {
					return nil, err
				}
			}
		}

		descended := false
		for f.label < alphabetSize {
			c := byte(f.label)
			f.label++
			next, ok := m.transition(f.state, c)
			if !ok {
				continue
			}
			if len(key) >= len(m.base) {
				return nil, &CorruptedBlobError{Reason: "key depth exceeds state count"}
			}
			key = append(key, c)
			stack = append(stack, frame{state: next})
			descended = true
			break
		}
		if !descended {
			stack = stack[:len(stack)-1]
			if len(key) > 0 {
				key = key[:len(key)-1]
			}
		}
	}
	return table, nil
}
