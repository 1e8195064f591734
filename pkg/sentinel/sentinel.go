// Package sentinel serialises and deserialises the small fixed-layout
// binary records that authenticate a repository and each of its
// resources (spec §4.3).
//
// Neither record uses any framing or versioning beyond the CRC itself:
// a signature mismatch means the bytes were either corrupted or never
// written by this package (spec §4.3, §7 SignatureMismatch).
package sentinel

import (
	"encoding/binary"
	"encoding/hex"
	"errors"

	"github.com/oakmere/magickcache/pkg/digest"
)

// PackageName is folded into every CRC computation as a domain
// separator (spec §4.3).
const PackageName = "MagickCache"

// APIVersion and Magic are the two 32-bit constants folded into every
// sentinel CRC alongside PackageName and the record's nonce.
const (
	APIVersion uint32 = 1
	Magic      uint32 = 0x4D434B43 // "MCKC"
)

// RepoFileName and ResourceFileName are the two sentinel filenames
// spec §4.3/§6.1 define.
const (
	RepoFileName     = ".magick-cache"
	ResourceFileName = ".magick-cache-resource"
)

// NonceSize is the fixed width of the nonce field in both records.
const NonceSize = 8

// ErrSignatureMismatch is returned when a record's CRC does not match
// its declared nonce and prefix — corruption or forgery (spec §7).
var ErrSignatureMismatch = errors.New("sentinel: signature mismatch")

// crcPrefix builds "package-name ∥ u32(API_VERSION) ∥ u32(MAGIC)", the
// shared prefix every sentinel CRC is computed over before the nonce
// is appended (spec §4.3).
func crcPrefix() []byte {
	buf := make([]byte, 0, len(PackageName)+8)
	buf = append(buf, PackageName...)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], APIVersion)
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint32(tmp[:], Magic)
	buf = append(buf, tmp[:]...)
	return buf
}

// Signature computes the sentinel CRC for a given nonce: crc32(prefix ∥ nonce).
func Signature(nonce [NonceSize]byte) uint32 {
	return digest.CRC32(digest.Concat(crcPrefix(), nonce[:]))
}

// Repository is the decoded form of the repository sentinel
// (<root>/.magick-cache, spec §4.3):
//
//	u32  crc32(package ∥ API ∥ MAGIC ∥ nonce)
//	u8[8] nonce
//	hex   passkey-check-digest
type Repository struct {
	Nonce       [NonceSize]byte
	CheckDigest string // hex, = digest(root ∥ passkey ∥ nonce)
}

// EncodeRepository serialises a Repository sentinel.
func EncodeRepository(r Repository) []byte {
	crc := Signature(r.Nonce)
	buf := make([]byte, 4+NonceSize+len(r.CheckDigest))
	binary.LittleEndian.PutUint32(buf[0:4], crc)
	copy(buf[4:4+NonceSize], r.Nonce[:])
	copy(buf[4+NonceSize:], r.CheckDigest)
	return buf
}

// DecodeRepository parses and verifies a Repository sentinel. A CRC
// mismatch returns ErrSignatureMismatch with whatever nonce/digest
// could still be read, matching spec §4.4 Acquire step 3's "destroy
// and return none" on failed verification (the caller decides whether
// to treat the zero value as fatal).
func DecodeRepository(data []byte) (Repository, error) {
	if len(data) < 4+NonceSize {
		return Repository{}, ErrSignatureMismatch
	}
	var rec Repository
	wantCRC := binary.LittleEndian.Uint32(data[0:4])
	copy(rec.Nonce[:], data[4:4+NonceSize])
	rec.CheckDigest = string(data[4+NonceSize:])

	if Signature(rec.Nonce) != wantCRC {
		return rec, ErrSignatureMismatch
	}
	return rec, nil
}

// Resource is the decoded form of a resource sentinel
// (<root>/<IRI>/.magick-cache-resource, spec §4.3):
//
//	u32   crc32(package ∥ API ∥ MAGIC ∥ nonce)
//	u8[8] nonce
//	u64   ttl
//	u64   columns
//	u64   rows
//	hex   id-digest
type Resource struct {
	Nonce   [NonceSize]byte
	TTL     uint64
	Columns uint64
	Rows    uint64
	ID      string // hex digest
}

// EncodeResource serialises a Resource sentinel.
func EncodeResource(r Resource) []byte {
	crc := Signature(r.Nonce)
	buf := make([]byte, 4+NonceSize+8+8+8+len(r.ID))
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], crc)
	off += 4
	copy(buf[off:off+NonceSize], r.Nonce[:])
	off += NonceSize
	binary.LittleEndian.PutUint64(buf[off:off+8], r.TTL)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], r.Columns)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], r.Rows)
	off += 8
	copy(buf[off:], r.ID)
	return buf
}

// DecodeResource parses and verifies a Resource sentinel, mirroring
// DecodeRepository's error contract.
func DecodeResource(data []byte) (Resource, error) {
	const fixedLen = 4 + NonceSize + 8 + 8 + 8
	if len(data) < fixedLen {
		return Resource{}, ErrSignatureMismatch
	}

	var rec Resource
	off := 0
	wantCRC := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	copy(rec.Nonce[:], data[off:off+NonceSize])
	off += NonceSize
	rec.TTL = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	rec.Columns = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	rec.Rows = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	rec.ID = string(data[off:])

	if Signature(rec.Nonce) != wantCRC {
		return rec, ErrSignatureMismatch
	}
	return rec, nil
}

// HexID is a small helper for call sites that need to validate an id
// string looks like a digest before using it as a filename component.
func HexID(s string) (string, error) {
	if _, err := hex.DecodeString(s); err != nil {
		return "", err
	}
	return s, nil
}
