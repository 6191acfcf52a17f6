package trie

import (
	"encoding/binary"
	"fmt"
)

// Blob layout, all fields little-endian:
//
//	offset 0   magic    "CMAP"
//	offset 4   version  uint32 (currently 1)
//	offset 8   nStates  uint32
//	offset 12  nValues  uint32 (length of the values region in bytes)
//	offset 16  base     nStates x int32
//	...        check    nStates x int32
//	...        valueOff nStates x uint32
//	...        values   nValues bytes
//
// This is a fresh, versioned format: there is no byte-level interop with
// charsmap artifacts produced by other implementations.

var blobMagic = [4]byte{'C', 'M', 'A', 'P'}

const (
	blobVersion    = 1
	headerSize     = 16
	bytesPerState  = 12 // int32 base + int32 check + uint32 valueOff
	maxStateCount  = 1 << 28
	maxValuesBytes = 1 << 30
)

func encode(base []int32, check []int32, valueOff []uint32, values []byte) []byte {
	nStates := len(base)
	blob := make([]byte, 0, headerSize+nStates*bytesPerState+len(values))

	blob = append(blob, blobMagic[:]...)
	blob = binary.LittleEndian.AppendUint32(blob, blobVersion)
	blob = binary.LittleEndian.AppendUint32(blob, uint32(nStates))
	blob = binary.LittleEndian.AppendUint32(blob, uint32(len(values)))

	for _, v := range base {
		blob = binary.LittleEndian.AppendUint32(blob, uint32(v))
	}
	for _, v := range check {
		blob = binary.LittleEndian.AppendUint32(blob, uint32(v))
	}
	for _, v := range valueOff {
		blob = binary.LittleEndian.AppendUint32(blob, v)
	}
	return append(blob, values...)
}

// Load parses and fully validates a charsmap blob, returning a read-only
// matcher. The blob is untrusted: the header, every base and check entry,
// and every value offset are checked here so that no later lookup can
// read out of bounds. Returns *CorruptedBlobError on any inconsistency.
func Load(blob []byte) (*Matcher, error) {
	if len(blob) < headerSize {
		return nil, &CorruptedBlobError{Reason: fmt.Sprintf("blob too short: %d bytes", len(blob))}
	}
	if [4]byte(blob[:4]) != blobMagic {
		return nil, &CorruptedBlobError{Reason: "bad magic"}
	}
	if v := binary.LittleEndian.Uint32(blob[4:]); v != blobVersion {
		return nil, &CorruptedBlobError{Reason: fmt.Sprintf("unsupported version %d", v)}
	}

	nStates := int(binary.LittleEndian.Uint32(blob[8:]))
	nValues := int(binary.LittleEndian.Uint32(blob[12:]))
	if nStates < rootState+1 || nStates > maxStateCount {
		return nil, &CorruptedBlobError{Reason: fmt.Sprintf("implausible state count %d", nStates)}
	}
	if nValues < 1 || nValues > maxValuesBytes {
		return nil, &CorruptedBlobError{Reason: fmt.Sprintf("implausible values length %d", nValues)}
	}
	if want := headerSize + nStates*bytesPerState + nValues; len(blob) != want {
		return nil, &CorruptedBlobError{
			Reason: fmt.Sprintf("declared sizes need %d bytes, blob has %d", want, len(blob)),
		}
	}

	m := &Matcher{
		base:     make([]int32, nStates),
		check:    make([]int32, nStates),
		valueOff: make([]uint32, nStates),
		values:   append([]byte(nil), blob[headerSize+nStates*bytesPerState:]...),
	}
	off := headerSize
	for i := range m.base {
		m.base[i] = int32(binary.LittleEndian.Uint32(blob[off:]))
		off += 4
	}
	for i := range m.check {
		m.check[i] = int32(binary.LittleEndian.Uint32(blob[off:]))
		off += 4
	}
	for i := range m.valueOff {
		m.valueOff[i] = binary.LittleEndian.Uint32(blob[off:])
		off += 4
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate bounds-checks every array entry against the declared sizes.
func (m *Matcher) validate() error {
	nStates := int32(len(m.base))
	for s, b := range m.base {
		if b < 0 || b >= nStates {
			return &CorruptedBlobError{Reason: fmt.Sprintf("state %d: base %d out of range [0,%d)", s, b, nStates)}
		}
	}
	for t, s := range m.check {
		if s < 0 || s >= nStates {
			return &CorruptedBlobError{Reason: fmt.Sprintf("slot %d: check %d out of range [0,%d)", t, s, nStates)}
		}
	}
	for s, off := range m.valueOff {
		if off == 0 {
			continue
		}
		if int(off) >= len(m.values) {
			return &CorruptedBlobError{
				Reason: fmt.Sprintf("state %d: value offset %d out of range [1,%d)", s, off, len(m.values)),
			}
		}
		n, size := binary.Uvarint(m.values[off:])
		if size <= 0 || n > uint64(len(m.values)) || int(off)+size+int(n) > len(m.values) {
			return &CorruptedBlobError{
				Reason: fmt.Sprintf("state %d: value record at offset %d exceeds values region", s, off),
			}
		}
	}
	return nil
}
