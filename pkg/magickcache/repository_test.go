package magickcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateAndAcquireRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repo")
	passkey := []byte("s3cr3t")

	require.NoError(t, Create(root, passkey))

	repo, err := Acquire(root, passkey)
	require.NoError(t, err)
	require.Equal(t, root, repo.Root())
	require.True(t, repo.passkeyMatchesCreator())
}

func TestCreateTwiceFailsWithAlreadyExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repo")
	passkey := []byte("key")

	require.NoError(t, Create(root, passkey))
	err := Create(root, passkey)
	require.Error(t, err)

	var magicErr *Error
	require.ErrorAs(t, err, &magicErr)
	require.Equal(t, KindAlreadyExists, magicErr.Kind)
}

func TestAcquireMissingRepositoryFails(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := Acquire(root, []byte("key"))
	require.Error(t, err)
}

func TestPasskeyMismatchIsDetectedNotFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Create(root, []byte("creator-key")))

	repo, err := Acquire(root, []byte("different-key"))
	require.NoError(t, err) // spec §8 property 2: mismatch does not fail Acquire
	require.False(t, repo.passkeyMatchesCreator())
}
