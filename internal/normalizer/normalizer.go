// Package normalizer applies a compiled charsmap to raw text.
//
// An Engine is built once from a Spec, owns its compiled trie for its
// lifetime, and is immutable afterwards: Normalize is a pure function of
// the input and may be called concurrently from any number of goroutines.
package normalizer

import (
	"bytes"

	"github.com/roach88/charsmap/internal/trie"
)

// WhitespaceMarker is the reserved multi-byte symbol (U+2581, LOWER ONE
// EIGHTH BLOCK) substituted for literal spaces when escaping is enabled,
// so word-boundary information survives subword splitting.
const WhitespaceMarker = "\xe2\x96\x81"

// Spec is the immutable configuration of an engine.
type Spec struct {
	// EscapeWhitespaces replaces every literal ASCII space surviving rule
	// application with WhitespaceMarker.
	EscapeWhitespaces bool

	// AddDummyPrefix inserts one leading whitespace unit before scanning,
	// marking a word start at the beginning of the text.
	AddDummyPrefix bool

	// RemoveExtraWhitespaces collapses runs of consecutive whitespace
	// units to one and, when AddDummyPrefix is off, trims a single
	// leading or trailing unit.
	RemoveExtraWhitespaces bool

	// PrecompiledCharsMap is the compiled rule blob. Empty means no
	// rules: every byte passes through unchanged.
	PrecompiledCharsMap []byte
}

// AlignmentEntry maps one span of normalized output back to the source
// bytes that produced it. Entries are ordered by OutputOffset and cover
// the full output range with no gaps. A SourceLength of zero marks a pure
// insertion, such as the dummy prefix.
type AlignmentEntry struct {
	OutputOffset int `json:"output_offset"`
	SourceOffset int `json:"source_offset"`
	SourceLength int `json:"source_length"`
}

// Engine normalizes byte streams with greedy longest-prefix-match
// semantics over one compiled trie.
type Engine struct {
	spec    Spec
	matcher *trie.Matcher // nil when the spec carries no rules
}

// New builds an engine from a spec. The precompiled charsmap, if any, is
// fully validated here; Normalize itself cannot fail.
func New(spec Spec) (*Engine, error) {
	e := &Engine{spec: spec}
	if len(spec.PrecompiledCharsMap) > 0 {
		m, err := trie.Load(spec.PrecompiledCharsMap)
		if err != nil {
			return nil, err
		}
		e.matcher = m
	}
	return e, nil
}

// Spec returns the engine's configuration.
func (e *Engine) Spec() Spec { return e.spec }

// piece is one unit of pending output: the bytes it contributes and the
// source range that produced them. The passes below rewrite the piece
// list; the final assembly turns it into output plus alignment.
type piece struct {
	out    []byte
	srcOff int
	srcLen int
}

// Normalize rewrites input according to the engine's rules and flags and
// returns the normalized bytes together with their alignment.
//
// Input is an opaque byte stream: no UTF-8 validation is performed, and
// multi-byte characters may be split across rule boundaries when rules
// are defined on raw bytes.
//
// When collapsing removes every byte (whitespace-only input with
// RemoveExtraWhitespaces set and no dummy prefix) the output and the
// alignment are both empty.
func (e *Engine) Normalize(input []byte) ([]byte, []AlignmentEntry) {
	pieces := make([]piece, 0, len(input)+1)

	if e.spec.AddDummyPrefix {
		pieces = append(pieces, piece{out: []byte(" "), srcOff: 0, srcLen: 0})
	}

	// Greedy left-to-right scan: longest matching rule wins, unmatched
	// bytes pass through unchanged.
	for p := 0; p < len(input); {
		if e.matcher != nil {
			if target, n, ok := e.matcher.LongestPrefix(input[p:]); ok {
				pieces = append(pieces, piece{out: target, srcOff: p, srcLen: n})
				p += n
				continue
			}
		}
		pieces = append(pieces, piece{out: input[p : p+1], srcOff: p, srcLen: 1})
		p++
	}

	pieces = mergeDeletions(pieces)

	if e.spec.EscapeWhitespaces {
		for i := range pieces {
			if bytes.IndexByte(pieces[i].out, ' ') >= 0 {
				pieces[i].out = bytes.ReplaceAll(pieces[i].out, []byte(" "), []byte(WhitespaceMarker))
			}
		}
	}

	if e.spec.RemoveExtraWhitespaces {
		unit := e.whitespaceUnit()
		pieces = splitWhitespaceUnits(pieces, unit)
		pieces = collapseWhitespace(pieces, unit)
		if !e.spec.AddDummyPrefix {
			pieces = trimEdgeWhitespace(pieces, unit)
		}
	}

	return assemble(pieces)
}

// NormalizeString is Normalize for string input and output.
func (e *Engine) NormalizeString(input string) (string, []AlignmentEntry) {
	out, alignment := e.Normalize([]byte(input))
	return string(out), alignment
}

// whitespaceUnit is the byte sequence the collapse pass counts as one
// whitespace: the escape marker once escaping has run, a literal space
// otherwise.
func (e *Engine) whitespaceUnit() []byte {
	if e.spec.EscapeWhitespaces {
		return []byte(WhitespaceMarker)
	}
	return []byte(" ")
}

// mergeDeletions folds pieces with empty output (deletion rules) into a
// neighboring piece so every source byte still resolves to some output
// position: into the previous piece when one exists, else into the next.
func mergeDeletions(pieces []piece) []piece {
	kept := pieces[:0]
	pendingOff, pendingLen := 0, 0
	for _, pc := range pieces {
		if len(pc.out) == 0 {
			if len(kept) > 0 {
				kept[len(kept)-1].srcLen += pc.srcLen
			} else {
				if pendingLen == 0 {
					pendingOff = pc.srcOff
				}
				pendingLen += pc.srcLen
			}
			continue
		}
		if pendingLen > 0 {
			pc.srcOff = pendingOff
			pc.srcLen += pendingLen
			pendingLen = 0
		}
		kept = append(kept, pc)
	}
	return kept
}

// isWhitespacePiece reports whether out is a non-empty repetition of unit.
func isWhitespacePiece(out []byte, unit []byte) bool {
	if len(out) == 0 || len(out)%len(unit) != 0 {
		return false
	}
	for i := 0; i < len(out); i += len(unit) {
		if !bytes.Equal(out[i:i+len(unit)], unit) {
			return false
		}
	}
	return true
}

// splitWhitespaceUnits cuts every piece whose output mixes whitespace
// units with other bytes, so the collapse and trim passes see each unit
// in the output stream as its own piece. Whitespace from a rule target is
// then indistinguishable from whitespace that survived the scan. Each
// sub-piece keeps the source range of the piece it came from: one rule
// application covers one source span no matter how its target is cut.
func splitWhitespaceUnits(pieces []piece, unit []byte) []piece {
	split := make([]piece, 0, len(pieces))
	for _, pc := range pieces {
		if isWhitespacePiece(pc.out, unit) || !bytes.Contains(pc.out, unit) {
			split = append(split, pc)
			continue
		}
		rest := pc.out
		for len(rest) > 0 {
			i := bytes.Index(rest, unit)
			if i < 0 {
				split = append(split, piece{out: rest, srcOff: pc.srcOff, srcLen: pc.srcLen})
				break
			}
			if i > 0 {
				split = append(split, piece{out: rest[:i], srcOff: pc.srcOff, srcLen: pc.srcLen})
			}
			split = append(split, piece{out: rest[i : i+len(unit)], srcOff: pc.srcOff, srcLen: pc.srcLen})
			rest = rest[i+len(unit):]
		}
	}
	return split
}

// widen extends a retained piece's source range to cover a dropped one.
// Ranges are united rather than summed: split sub-pieces share their
// origin's range, so plain length addition would overshoot the input.
func widen(pc *piece, dropped piece) {
	end := pc.srcOff + pc.srcLen
	if droppedEnd := dropped.srcOff + dropped.srcLen; droppedEnd > end {
		end = droppedEnd
	}
	if dropped.srcOff < pc.srcOff {
		pc.srcOff = dropped.srcOff
	}
	pc.srcLen = end - pc.srcOff
}

// collapseWhitespace reduces every run of consecutive whitespace pieces
// to a single unit. The first piece of the run is retained and its source
// range widened over the dropped pieces, so the original offsets of the
// dropped bytes still resolve to the retained span.
func collapseWhitespace(pieces []piece, unit []byte) []piece {
	kept := pieces[:0]
	inRun := false
	for _, pc := range pieces {
		if !isWhitespacePiece(pc.out, unit) {
			kept = append(kept, pc)
			inRun = false
			continue
		}
		if inRun {
			widen(&kept[len(kept)-1], pc)
			continue
		}
		pc.out = unit
		kept = append(kept, pc)
		inRun = true
	}
	return kept
}

// trimEdgeWhitespace drops a single leading or trailing whitespace piece,
// merging its source range into the nearest retained piece.
func trimEdgeWhitespace(pieces []piece, unit []byte) []piece {
	if len(pieces) > 0 && isWhitespacePiece(pieces[0].out, unit) {
		dropped := pieces[0]
		pieces = pieces[1:]
		if len(pieces) > 0 {
			widen(&pieces[0], dropped)
		}
	}
	if n := len(pieces); n > 0 && isWhitespacePiece(pieces[n-1].out, unit) {
		dropped := pieces[n-1]
		pieces = pieces[:n-1]
		if len(pieces) > 0 {
			widen(&pieces[len(pieces)-1], dropped)
		}
	}
	return pieces
}

// assemble concatenates the pieces into the output buffer and emits one
// alignment entry per piece.
func assemble(pieces []piece) ([]byte, []AlignmentEntry) {
	total := 0
	for _, pc := range pieces {
		total += len(pc.out)
	}
	out := make([]byte, 0, total)
	alignment := make([]AlignmentEntry, 0, len(pieces))
	for _, pc := range pieces {
		alignment = append(alignment, AlignmentEntry{
			OutputOffset: len(out),
			SourceOffset: pc.srcOff,
			SourceLength: pc.srcLen,
		})
		out = append(out, pc.out...)
	}
	return out, alignment
}
