// Package nonce mints the 8-byte random nonces that domain-separate
// sentinel CRCs and identifier digests (spec §3, §4.3).
//
// The random source is an external collaborator (spec §1); this
// package's job is only to shape that randomness into the fixed
// 8-byte strings the rest of the engine expects.
package nonce

import "github.com/google/uuid"

// Size is the fixed length, in bytes, of a MagickCache nonce.
const Size = 8

// New returns a fresh 8-byte random nonce, taken from the leading
// bytes of a version-4 (random) UUID.
func New() [Size]byte {
	id := uuid.New()
	var n [Size]byte
	copy(n[:], id[:Size])
	return n
}

// NewBytes is a convenience wrapper returning a slice instead of an
// array, for call sites that build up byte strings for CRC/digest
// input (spec §4.1, §4.3).
func NewBytes() []byte {
	n := New()
	return n[:]
}
