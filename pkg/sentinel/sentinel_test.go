package sentinel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRepositoryRoundTrip(t *testing.T) {
	rec := Repository{
		Nonce:       [NonceSize]byte{1, 2, 3, 4, 5, 6, 7, 8},
		CheckDigest: "abcd1234",
	}
	encoded := EncodeRepository(rec)
	decoded, err := DecodeRepository(encoded)
	require.NoError(t, err)
	require.Equal(t, rec, decoded)
}

func TestRepositoryCorruptedSignature(t *testing.T) {
	rec := Repository{Nonce: [NonceSize]byte{1, 2, 3, 4, 5, 6, 7, 8}, CheckDigest: "zz"}
	encoded := EncodeRepository(rec)
	encoded[4] ^= 0xFF // flip every bit of the first nonce byte without fixing the CRC
	_, err := DecodeRepository(encoded)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestResourceRoundTrip(t *testing.T) {
	rec := Resource{
		Nonce:   [NonceSize]byte{9, 8, 7, 6, 5, 4, 3, 2},
		TTL:     3600,
		Columns: 70,
		Rows:    46,
		ID:      "deadbeefcafef00d",
	}
	encoded := EncodeResource(rec)
	decoded, err := DecodeResource(encoded)
	require.NoError(t, err)
	require.Equal(t, rec, decoded)
}

func TestResourceCorruptedSignature(t *testing.T) {
	rec := Resource{Nonce: [NonceSize]byte{1, 1, 1, 1, 1, 1, 1, 1}, TTL: 1, ID: "ab"}
	encoded := EncodeResource(rec)
	encoded[0] ^= 0xFF
	_, err := DecodeResource(encoded)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestResourceZeroFieldsForNonImage(t *testing.T) {
	rec := Resource{Nonce: [NonceSize]byte{1}, TTL: 0, Columns: 0, Rows: 0, ID: "ab"}
	encoded := EncodeResource(rec)
	decoded, err := DecodeResource(encoded)
	require.NoError(t, err)
	require.Zero(t, decoded.Columns)
	require.Zero(t, decoded.Rows)
}
