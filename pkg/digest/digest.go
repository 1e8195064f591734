// Package digest provides the CRC and cryptographic-digest primitives
// that back sentinel integrity and content-addressed identifiers.
//
// Both primitives are external collaborators from the perspective of
// the repository engine (spec §4.1): the engine only ever calls CRC32
// and Sum, never inspects their internals.
package digest

import (
	"encoding/hex"
	"hash/crc32"

	"golang.org/x/crypto/blake2b"
)

// ieeeTable is the standard reflected IEEE 802.3 polynomial table
// (0xEDB88320), built lazily by the standard library on first use.
var ieeeTable = crc32.IEEETable

// CRC32 computes the IEEE 802.3 CRC-32 (reflected, 0xEDB88320
// polynomial, initial value 0xFFFFFFFF, final XOR 0xFFFFFFFF) of data.
// This matches MagickCache's sentinel signature exactly.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, ieeeTable)
}

// hexLen is the number of hex characters emitted by Sum: 32 bytes of
// blake2b-256 output, hex-encoded, i.e. 64 ASCII characters — the
// maximum width spec §4.1 allows for an identifier digest.
const hexLen = 64

// Sum returns the hex-encoded cryptographic digest of data. It is
// deterministic, collision-resistant in practice, and always exactly
// 64 ASCII characters, satisfying spec §4.1's digest() contract.
func Sum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SumLen returns the fixed length of a Sum() result.
func SumLen() int { return hexLen }

// Concat is a small helper for building the byte strings that digest
// and CRC computations are run over, avoiding repeated manual
// append/copy at call sites throughout the engine.
func Concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
