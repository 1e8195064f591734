package digest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC32KnownVector(t *testing.T) {
	// "123456789" is the standard CRC-32/IEEE-802.3 check vector.
	require.Equal(t, uint32(0xCBF43926), CRC32([]byte("123456789")))
}

func TestSumDeterministicFixedWidth(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	require.Equal(t, a, b)
	require.Len(t, a, SumLen())
	require.LessOrEqual(t, len(a), 64)
}

func TestSumDiffersOnInput(t *testing.T) {
	require.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestConcat(t *testing.T) {
	got := Concat([]byte("foo"), []byte("bar"), []byte("baz"))
	require.Equal(t, "foobarbaz", string(got))
}
