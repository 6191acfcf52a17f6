package trie

import (
	"errors"
	"fmt"
)

// CompileError reports a rule set that cannot be compiled.
//
// Compile errors include:
//   - Contradiction: two rules map the same source to different targets
//     (excluded by the rule table invariant, re-checked here)
//   - Size guard: the encoded blob would exceed the configured maximum
type CompileError struct {
	// Message is a human-readable description.
	Message string

	// Source identifies the offending rule source, if any.
	Source string
}

func (e *CompileError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("compile: %s (source=%q)", e.Message, e.Source)
	}
	return fmt.Sprintf("compile: %s", e.Message)
}

// CorruptedBlobError reports an invalid precompiled charsmap blob.
//
// Blobs are untrusted input: every header field, array index, and value
// offset is validated when the blob is loaded, before any lookup is
// permitted. A blob that fails any of these checks is rejected with this
// error and never consulted again.
type CorruptedBlobError struct {
	// Reason describes the inconsistency.
	Reason string
}

func (e *CorruptedBlobError) Error() string {
	return fmt.Sprintf("corrupted charsmap blob: %s", e.Reason)
}

// IsCorruptedBlob returns true if the error is a CorruptedBlobError.
// Uses errors.As to handle wrapped errors.
func IsCorruptedBlob(err error) bool {
	var ce *CorruptedBlobError
	return errors.As(err, &ce)
}
