package magickcache

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oakmere/magickcache/internal/logger"
	"github.com/oakmere/magickcache/pkg/digest"
	"github.com/oakmere/magickcache/pkg/fsutil"
	"github.com/oakmere/magickcache/pkg/metrics"
	"github.com/oakmere/magickcache/pkg/nonce"
	"github.com/oakmere/magickcache/pkg/sentinel"
)

// Repository represents an opened repository (spec §3 Data Model).
//
// A Repository exists only if its root directory exists and the
// repository sentinel at <root>/.magick-cache verifies. It is not
// safe for concurrent use by multiple goroutines (spec §5: "single-
// threaded per Repository object"); callers needing concurrent access
// must serialise externally or use one Repository per goroutine.
type Repository struct {
	mu sync.Mutex

	root        string
	createdAt   time.Time
	nonce       [sentinel.NonceSize]byte
	passkey     []byte
	passkeyHex  string // digest(passkey), carried in memory per spec §3
	checkDigest string // sentinel's stored check digest, loaded at Acquire
	alive       bool
	log         *slog.Logger

	exceptionSlot
}

// sentinelPath returns <root>/.magick-cache.
func (r *Repository) sentinelPath() string {
	return fsutil.Join(r.root, sentinel.RepoFileName)
}

// Create lays down a brand-new repository at path (spec §4.4 Create).
func Create(path string, passkey []byte) error {
	log := logger.Repo(logger.New(), path)
	log.Debug("creating repository")

	if err := fsutil.CreatePath(path); err != nil {
		log.Error("create repository: create path failed", "error", err)
		return newErr(KindIO, "Create", path, err)
	}

	sp := fsutil.Join(path, sentinel.RepoFileName)
	if exists, err := fsutil.Exists(sp); err != nil {
		log.Error("create repository: stat sentinel failed", "error", err)
		return newErr(KindIO, "Create", path, err)
	} else if exists {
		log.Warn("create repository: already exists")
		return newErr(KindAlreadyExists, "Create", path, nil)
	}

	n := nonce.New()
	checkDigest := digest.Sum(digest.Concat([]byte(path), passkey, n[:]))

	encoded := sentinel.EncodeRepository(sentinel.Repository{
		Nonce:       n,
		CheckDigest: checkDigest,
	})
	if err := fsutil.BytesToFile(sp, encoded); err != nil {
		log.Error("create repository: write sentinel failed", "error", err)
		return newErr(KindIO, "Create", path, err)
	}
	return nil
}

// Acquire opens an existing repository (spec §4.4 Acquire).
//
// Per the Open Question resolution in SPEC_FULL.md §5, the sentinel's
// check digest is verified against the caller's live passkey at open
// time rather than left unverified: a mismatch does not fail Acquire
// (the caller may intentionally hold a different passkey than the
// repository's creator, spec §8 property 2) but is logged and recorded
// so GetResource's live-tuple id recomputation (spec §4.5 step 3) has a
// reliable signal.
func Acquire(path string, passkey []byte) (*Repository, error) {
	log := logger.Repo(logger.New(), path)
	log.Debug("acquiring repository")

	attrs, ok, err := fsutil.PathAttributes(path)
	if err != nil {
		log.Error("acquire repository: stat path failed", "error", err)
		return nil, newErr(KindIO, "Acquire", path, err)
	}
	if !ok {
		log.Warn("acquire repository: path not found")
		return nil, newErr(KindNotFound, "Acquire", path, nil)
	}

	r := &Repository{
		root:       path,
		createdAt:  attrs.Ctime,
		passkey:    append([]byte(nil), passkey...),
		passkeyHex: digest.Sum(passkey),
		alive:      true,
		log:        log,
	}

	sp := r.sentinelPath()
	data, ok, err := fsutil.FileToBytes(sp)
	if err != nil {
		log.Error("acquire repository: read sentinel failed", "error", err)
		return nil, newErr(KindIO, "Acquire", sp, err)
	}
	if !ok {
		log.Warn("acquire repository: sentinel not found")
		return nil, newErr(KindNotFound, "Acquire", sp, nil)
	}

	rec, err := sentinel.DecodeRepository(data)
	if err != nil {
		log.Error("acquire repository: decode sentinel failed", "error", err)
		return nil, newErr(KindSignatureMismatch, "Acquire", sp, err)
	}

	r.nonce = rec.Nonce
	r.checkDigest = rec.CheckDigest

	if !r.passkeyMatchesCreator() {
		log.Warn("acquire repository: check digest mismatch, passkey differs from creator's")
	}

	return r, nil
}

// Destroy invalidates the repository (spec §4.4 Destroy). Using r after
// Destroy is a programming error; Go's ownership model makes the
// original's "signature magic" use-after-destroy guard unnecessary
// (spec §9), so Destroy only marks the object dead. No accessor checks
// that mark, and the Repository holds no payloads or handles to release.
func (r *Repository) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alive = false
}

// DeleteMagickCache recursively removes the entire repository tree,
// including the repository sentinel itself. Per SPEC_FULL.md §5 this
// is treated as optional surface (spec §9 Open Questions). The CLI's
// delete subcommand calls it when it is given a repository path and no
// IRI.
func (r *Repository) DeleteMagickCache() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.RemoveAll(r.root); err != nil {
		return r.set(newErr(KindIO, "DeleteMagickCache", r.root, err))
	}
	r.alive = false
	return nil
}

// SetPasskey changes the in-memory passkey on an already-open
// Repository without recreating it, carried forward from the
// original's SetMagickCacheKey (SPEC_FULL.md §4). It does not rewrite
// the on-disk sentinel's check digest, which always reflects the
// repository's creator.
func (r *Repository) SetPasskey(passkey []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passkey = append([]byte(nil), passkey...)
	r.passkeyHex = digest.Sum(passkey)
}

// Root returns the repository's root path.
func (r *Repository) Root() string { return r.root }

// CreatedAt returns the repository directory's creation time.
func (r *Repository) CreatedAt() time.Time { return r.createdAt }

// Nonce returns the repository's 8-byte nonce.
func (r *Repository) Nonce() [sentinel.NonceSize]byte { return r.nonce }

// PasskeyDigest returns digest(passkey) for the repository's current,
// live passkey (spec §3 Data Model).
func (r *Repository) PasskeyDigest() string { return r.passkeyHex }

// passkeyMatchesCreator reports whether the repository's current live
// passkey reproduces the sentinel's stored check digest — i.e. whether
// the caller holds the same passkey the repository was created with.
// Used by GetResource (spec §4.5 step 3).
func (r *Repository) passkeyMatchesCreator() bool {
	expected := digest.Sum(digest.Concat([]byte(r.root), r.passkey, r.nonce[:]))
	return expected == r.checkDigest
}

// GetException returns the repository's last recorded error, or nil.
func (r *Repository) GetException() *Error { return r.get() }

// ClearException resets the repository's last-error slot.
func (r *Repository) ClearException() { r.clear() }

// metricsHandle exposes the process-wide engine metrics, if enabled,
// to the CRUD engine (pkg/metrics.Enable gates this globally, matching
// the donor's metrics.IsEnabled()/GetRegistry() pattern).
func metricsHandle() *metrics.EngineMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return metrics.Engine()
}
