package bytesize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringBinaryPrefixUnits(t *testing.T) {
	require.Equal(t, "512B", ByteSize(512).String())
	require.Equal(t, "1.00KiB", ByteSize(1024).String())
	require.Equal(t, "1.00MiB", ByteSize(1024*1024).String())
}

func TestParseRoundTrip(t *testing.T) {
	v, err := Parse("1Gi")
	require.NoError(t, err)
	require.Equal(t, GiB, v)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-size")
	require.Error(t, err)
}
