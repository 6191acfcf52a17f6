package trie

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corrupt returns a copy of blob with a little-endian uint32 patched in.
func corrupt(blob []byte, off int, v uint32) []byte {
	out := append([]byte(nil), blob...)
	binary.LittleEndian.PutUint32(out[off:], v)
	return out
}

func validBlob(t *testing.T) []byte {
	t.Helper()
	blob, err := Compile(mustTable(t, map[string]string{"ab": "X", "a": "Y"}))
	require.NoError(t, err)
	return blob
}

func blobStateCount(blob []byte) int {
	return int(binary.LittleEndian.Uint32(blob[8:]))
}

func TestLoad_RejectsTruncatedBlob(t *testing.T) {
	_, err := Load([]byte("CMAP"))
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_RejectsBadMagic(t *testing.T) {
	blob := validBlob(t)
	blob[0] = 'X'
	_, err := Load(blob)

	var blobErr *CorruptedBlobError
	require.ErrorAs(t, err, &blobErr)
	assert.Contains(t, blobErr.Reason, "magic")
}

func TestLoad_RejectsUnknownVersion(t *testing.T) {
	_, err := Load(corrupt(validBlob(t), 4, 99))
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_RejectsLengthMismatch(t *testing.T) {
	blob := validBlob(t)
	_, err := Load(blob[:len(blob)-1])
	assert.True(t, IsCorruptedBlob(err))

	_, err = Load(append(blob, 0))
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_RejectsOutOfRangeBase(t *testing.T) {
	blob := validBlob(t)
	// base[rootState] sits at headerSize + 4.
	_, err := Load(corrupt(blob, headerSize+4, 1<<30))
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_RejectsOutOfRangeCheck(t *testing.T) {
	blob := validBlob(t)
	n := blobStateCount(blob)
	checkStart := headerSize + n*4
	_, err := Load(corrupt(blob, checkStart, uint32(n)))
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_RejectsOutOfRangeValueOffset(t *testing.T) {
	blob := validBlob(t)
	n := blobStateCount(blob)
	valueOffStart := headerSize + n*8

	// Point every state's value offset past the values region; at least
	// one of them is nonzero in a two-rule trie, and the first nonzero
	// one must be rejected.
	for s := 0; s < n; s++ {
		blob = corrupt(blob, valueOffStart+s*4, 1<<29)
	}
	_, err := Load(blob)
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_RejectsOverlongValueRecord(t *testing.T) {
	blob := validBlob(t)
	n := blobStateCount(blob)
	valuesStart := headerSize + n*bytesPerState
	nValues := len(blob) - valuesStart
	require.Greater(t, nValues, 1)

	// Make the last values byte a uvarint length that runs past the end,
	// then point a value offset at it.
	blob[len(blob)-1] = 0x7f
	valueOffStart := headerSize + n*8
	for s := 0; s < n; s++ {
		blob = corrupt(blob, valueOffStart+s*4, uint32(nValues-1))
	}
	_, err := Load(blob)
	assert.True(t, IsCorruptedBlob(err))
}

func TestLoad_ValidBlobSurvivesValidation(t *testing.T) {
	m, err := Load(validBlob(t))
	require.NoError(t, err)
	assert.Greater(t, m.NumStates(), 1)
}
