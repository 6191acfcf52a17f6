package trie

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/roach88/charsmap/internal/rules"
)

// DefaultMaxBlobSize is the size guard applied by Compile. A rule set
// whose encoded blob would exceed it fails with *CompileError.
const DefaultMaxBlobSize = 256 << 20

// buildNode is a node of the scratch pointer trie used during
// construction. It only exists until the freeze pass assigns double-array
// states.
type buildNode struct {
	children map[byte]*buildNode
	valueOff uint32 // 0 = not terminal
	state    int32
}

// Compile compiles a rule table into an immutable charsmap blob.
//
// Sources are inserted in ascending lexicographic byte order and targets
// are appended to the values buffer in that same order, so compiling the
// same logical rule set twice yields a byte-identical blob regardless of
// how the table was originally populated.
func Compile(table *rules.Table) ([]byte, error) {
	return CompileWithLimit(table, DefaultMaxBlobSize)
}

// CompileWithLimit is Compile with an explicit blob size guard.
func CompileWithLimit(table *rules.Table, maxBlobSize int) ([]byte, error) {
	root := &buildNode{children: make(map[byte]*buildNode)}
	values := []byte{0} // pad byte: offset 0 marks "not terminal"

	for _, rule := range table.Rules() {
		off := uint32(len(values))
		values = binary.AppendUvarint(values, uint64(len(rule.Target)))
		values = append(values, rule.Target...)

		node := root
		for _, c := range rule.Source {
			child := node.children[c]
			if child == nil {
				child = &buildNode{children: make(map[byte]*buildNode)}
				node.children[c] = child
			}
			node = child
		}
		// The table invariant already excludes contradictions; re-check
		// so a broken caller fails here instead of corrupting the trie.
		if node.valueOff != 0 {
			return nil, &CompileError{
				Message: "contradictory rules for same source",
				Source:  string(rule.Source),
			}
		}
		node.valueOff = off
	}

	base, check, valueOff := freeze(root)

	blob := encode(base, check, valueOff, values)
	if len(blob) > maxBlobSize {
		return nil, &CompileError{
			Message: fmt.Sprintf("encoded blob is %d bytes, exceeds limit of %d", len(blob), maxBlobSize),
		}
	}
	return blob, nil
}

// freeze lays the pointer trie out as a double array, breadth-first.
// Children of each node are placed in ascending label order; combined
// with the sorted insertion in Compile this makes the layout a pure
// function of the logical rule set.
func freeze(root *buildNode) (base []int32, check []int32, valueOff []uint32) {
	base = make([]int32, rootState+1)
	check = make([]int32, rootState+1)

	root.state = rootState
	firstFree := rootState + 1

	queue := []*buildNode{root}
	for q := 0; q < len(queue); q++ {
		node := queue[q]
		if len(node.children) == 0 {
			continue
		}
		labels := sortedLabels(node.children)

		// Advance the free hint past fully occupied slots so the base
		// search does not rescan the dense prefix on every node. The
		// hint only moves forward, which keeps relocation cost amortized
		// constant per insertion.
		for firstFree < len(check) && check[firstFree] != 0 {
			firstFree++
		}

		b := findBase(check, labels, firstFree)
		base, check = ensureSlot(base, check, int(b)+int(labels[len(labels)-1]))
		base[node.state] = b
		for _, l := range labels {
			t := b + l
			child := node.children[byte(l-1)]
			child.state = t
			check[t] = node.state
			queue = append(queue, child)
		}
	}

	valueOff = make([]uint32, len(base))
	for _, node := range queue {
		valueOff[node.state] = node.valueOff
	}
	return base, check, valueOff
}

func sortedLabels(children map[byte]*buildNode) []int32 {
	labels := make([]int32, 0, len(children))
	for c := range children {
		labels = append(labels, label(c))
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// findBase returns the smallest base >= 1 placing every label in a free
// slot. Slots at or beyond the current array end are free by definition.
func findBase(check []int32, labels []int32, firstFree int) int32 {
	start := int32(firstFree) - labels[0]
	if start < 1 {
		start = 1
	}
	for b := start; ; b++ {
		ok := true
		for _, l := range labels {
			t := int(b + l)
			if t < len(check) && (check[t] != 0 || t == rootState) {
				ok = false
				break
			}
		}
		if ok {
			return b
		}
	}
}

func ensureSlot(base []int32, check []int32, idx int) ([]int32, []int32) {
	if idx < len(base) {
		return base, check
	}
	grow := idx + 1 - len(base)
	base = append(base, make([]int32, grow)...)
	check = append(check, make([]int32, grow)...)
	return base, check
}
