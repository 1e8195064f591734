package magickcache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	root := filepath.Join(t.TempDir(), "repo")
	require.NoError(t, Create(root, []byte("key")))
	repo, err := Acquire(root, []byte("key"))
	require.NoError(t, err)
	t.Cleanup(repo.Destroy)
	return repo
}

func TestPutGetBlobRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "myproject/blob/a/b")
	defer res.Destroy()

	require.NoError(t, repo.PutBlob(res, []byte("hello world")))

	out := AcquireResource(repo, "myproject/blob/a/b")
	defer out.Destroy()
	data, err := repo.GetBlob(out)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), data)
}

func TestPutGetMetaStripsTrailingNUL(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "myproject/meta/note")
	defer res.Destroy()

	require.NoError(t, repo.PutMeta(res, "some metadata"))

	out := AcquireResource(repo, "myproject/meta/note")
	defer out.Destroy()
	meta, err := repo.GetMeta(out)
	require.NoError(t, err)
	require.Equal(t, "some metadata", meta)
}

func TestPutResourceNoOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "myproject/blob/dup")
	defer res.Destroy()
	require.NoError(t, repo.PutBlob(res, []byte("first")))

	again := AcquireResource(repo, "myproject/blob/dup")
	defer again.Destroy()
	err := repo.PutBlob(again, []byte("second"))
	require.Error(t, err)

	var magicErr *Error
	require.ErrorAs(t, err, &magicErr)
	require.Equal(t, KindAlreadyExists, magicErr.Kind)
}

func TestDeleteResourceRemovesEverythingAndPrunesAncestors(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "myproject/blob/deep/nested/leaf")
	defer res.Destroy()
	require.NoError(t, repo.PutBlob(res, []byte("payload")))

	require.NoError(t, repo.DeleteResource(res))

	check := AcquireResource(repo, "myproject/blob/deep/nested/leaf")
	defer check.Destroy()
	ok, err := repo.GetResource(check)
	require.NoError(t, err)
	require.False(t, ok)

	entries, err := os.ReadDir(repo.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1) // only the repository sentinel remains; ancestor dirs were pruned
}

func TestTTLZeroNeverExpires(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "myproject/blob/immortal")
	defer res.Destroy()
	res.SetTTL(0)
	require.NoError(t, repo.PutBlob(res, []byte("x")))

	expired, err := repo.IsExpired(res)
	require.NoError(t, err)
	require.False(t, expired)
}

func TestTTLPositiveExpiresAfterElapsed(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "myproject/blob/short-lived")
	defer res.Destroy()
	res.SetTTL(1)
	require.NoError(t, repo.PutBlob(res, []byte("x")))

	expired, err := repo.IsExpired(res)
	require.NoError(t, err)
	require.False(t, expired) // not yet elapsed

	res.timestamp = res.timestamp.Add(-2 * time.Second)
	expired, err = repo.IsExpired(res)
	require.NoError(t, err)
	require.True(t, expired)
}

func TestIterateResourcesVisitOnceAndShortCircuit(t *testing.T) {
	repo := newTestRepo(t)
	for _, iri := range []string{"p/blob/a", "p/blob/b", "p/blob/c"} {
		res := AcquireResource(repo, iri)
		require.NoError(t, repo.PutBlob(res, []byte(iri)))
		res.Destroy()
	}

	var visited []string
	err := repo.IterateResources("p", func(r *Repository, res *Resource) (bool, error) {
		visited = append(visited, res.GetIRI())
		return true, nil
	})
	require.NoError(t, err)
	require.Len(t, visited, 3)

	var count int
	err = repo.IterateResources("p", func(r *Repository, res *Resource) (bool, error) {
		count++
		return false, nil // short-circuit after the first
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestIdentifyWritesOneLine(t *testing.T) {
	repo := newTestRepo(t)
	res := AcquireResource(repo, "p/blob/named")
	defer res.Destroy()
	require.NoError(t, repo.PutBlob(res, []byte("abc")))

	var buf bytes.Buffer
	require.NoError(t, repo.Identify(res, &buf))
	require.Contains(t, buf.String(), "p/blob/named")
}
