// CRUD engine: the operations that compose the path builder (pkg/fsutil),
// sentinel codec (pkg/sentinel), digest primitives (pkg/digest), and
// image codec (pkg/codec) into put/get/delete/iterate/identify/expire
// (spec §4.5, §6).
//
// Every operation returns a Go error (nil on success), matching spec
// §7's policy while trading the original's boolean-return/out-
// parameter-exception convention for idiomatic Go; Repository.GetException
// and Resource.GetException remain as compatibility accessors mirroring
// the last returned *Error (SPEC_FULL.md §2.2).
package magickcache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oakmere/magickcache/internal/bytesize"
	"github.com/oakmere/magickcache/internal/logger"
	"github.com/oakmere/magickcache/pkg/codec"
	"github.com/oakmere/magickcache/pkg/digest"
	"github.com/oakmere/magickcache/pkg/fsutil"
	"github.com/oakmere/magickcache/pkg/sentinel"
)

func computeResourceID(iri string, resourceNonce [sentinel.NonceSize]byte, passkey []byte, repoNonce [sentinel.NonceSize]byte) string {
	return digest.Sum(digest.Concat([]byte(iri), resourceNonce[:], passkey, repoNonce[:]))
}

// resourceLog returns a logger scoped to res's IRI, falling back to a
// fresh unscoped logger if the repository was constructed without one
// (e.g. in tests that build a Repository by hand).
func (r *Repository) resourceLog(res *Resource) *slog.Logger {
	l := r.log
	if l == nil {
		l = logger.New()
	}
	return logger.Resource(l, res.iri)
}

// logOutcome records a failed operation at warn level, or error level
// for the severer Kinds (spec §2.1's "debug on entry, warn/error on
// failure"). A nil err logs nothing.
func logOutcome(log *slog.Logger, op string, err error) {
	if err == nil {
		return
	}
	var mcErr *Error
	if errors.As(err, &mcErr) {
		switch mcErr.Kind {
		case KindIO, KindAllocationFailed, KindSignatureMismatch:
			log.Error(op+" failed", "kind", mcErr.Kind.String(), "error", err)
			return
		}
	}
	log.Warn(op+" failed", "error", err)
}

// resourceDir returns <root>/<IRI>.
func (r *Repository) resourceDir(res *Resource) string {
	return fsutil.Join(r.root, res.iri)
}

// resourceSentinelPath returns <root>/<IRI>/.magick-cache-resource.
func (r *Repository) resourceSentinelPath(res *Resource) string {
	return fsutil.Join(r.resourceDir(res), sentinel.ResourceFileName)
}

// payloadPath returns <root>/<IRI>/<id>, computing id first if needed.
func (r *Repository) payloadPath(res *Resource) string {
	return fsutil.Join(r.resourceDir(res), res.Id())
}

// GetResource is the lookup/verify step used by every read path (spec
// §4.5). A missing sentinel is reported as ErrNotExist-shaped nil
// error with ok=false and no exception recorded — callers distinguish
// "not present" (put) from "missing" (get/delete) themselves.
func (r *Repository) GetResource(res *Resource) (bool, error) {
	log := r.resourceLog(res)
	log.Debug("GetResource")
	start := time.Now()
	ok, err := r.getResource(res)
	metricsHandle().Observe("get_resource", start, err)
	logOutcome(log, "GetResource", err)
	return ok, err
}

func (r *Repository) getResource(res *Resource) (bool, error) {
	sp := r.resourceSentinelPath(res)
	data, exists, err := fsutil.FileToBytes(sp)
	if err != nil {
		return false, res.set(newErr(KindIO, "GetResource", sp, err))
	}
	if !exists {
		return false, nil
	}

	rec, err := sentinel.DecodeResource(data)
	if err != nil {
		return false, res.set(newErr(KindSignatureMismatch, "GetResource", sp, err))
	}

	res.resourceNonce = rec.Nonce
	res.ttl = rec.TTL
	res.columns = rec.Columns
	res.rows = rec.Rows
	res.id = rec.ID

	// Spec §4.5 step 3: if the caller's live passkey does not reproduce
	// the repository's check digest, recompute id from the live tuple
	// instead of trusting the sentinel's stored id (see Repository's
	// passkeyMatchesCreator and SPEC_FULL.md §5 item 1).
	if !r.passkeyMatchesCreator() {
		res.id = res.computeID(r.passkey)
	}

	pp := r.payloadPath(res)
	attrs, exists, err := fsutil.PathAttributes(pp)
	if err != nil {
		return false, res.set(newErr(KindIO, "GetResource", pp, err))
	}
	if !exists {
		return false, res.set(newErr(KindNotFound, "GetResource", pp, nil))
	}

	res.timestamp = attrs.Ctime
	res.extent = attrs.Size
	res.clear()
	return true, nil
}

// PutResource lays down the resource sentinel only; payload bytes are
// written by PutBlob/PutMeta/PutImage (spec §4.5 PutResource).
func (r *Repository) PutResource(res *Resource) error {
	log := r.resourceLog(res)
	log.Debug("PutResource")
	err := r.putResource(res)
	logOutcome(log, "PutResource", err)
	return err
}

func (r *Repository) putResource(res *Resource) error {
	if ok, _ := r.getResource(res); ok {
		return res.set(newErr(KindAlreadyExists, "PutResource", res.iri, nil))
	}

	dir := r.resourceDir(res)
	if err := fsutil.CreatePath(dir); err != nil {
		return res.set(newErr(KindIO, "PutResource", dir, err))
	}

	sp := r.resourceSentinelPath(res)
	if exists, err := fsutil.Exists(sp); err != nil {
		return res.set(newErr(KindIO, "PutResource", sp, err))
	} else if exists {
		return res.set(newErr(KindAlreadyExists, "PutResource", res.iri, nil))
	}

	res.id = res.computeID(r.passkey)

	encoded := sentinel.EncodeResource(sentinel.Resource{
		Nonce:   res.resourceNonce,
		TTL:     res.ttl,
		Columns: res.columns,
		Rows:    res.rows,
		ID:      res.id,
	})
	if err := fsutil.BytesToFile(sp, encoded); err != nil {
		return res.set(newErr(KindIO, "PutResource", sp, err))
	}
	res.clear()
	return nil
}

// PutBlob stores raw bytes as a blob resource (spec §4.5 PutBlob).
func (r *Repository) PutBlob(res *Resource, data []byte) error {
	log := r.resourceLog(res)
	log.Debug("PutBlob", "bytes", len(data))
	start := time.Now()
	err := r.putBlob(res, data)
	metricsHandle().Observe("put_blob", start, err)
	logOutcome(log, "PutBlob", err)
	return err
}

func (r *Repository) putBlob(res *Resource, data []byte) error {
	if err := r.putResource(res); err != nil {
		return err
	}
	pp := r.payloadPath(res)
	if err := fsutil.BytesToFile(pp, data); err != nil {
		return res.set(newErr(KindIO, "PutBlob", pp, err))
	}
	return nil
}

// PutMeta stores a string as a NUL-terminated meta resource (spec §4.5
// PutMeta).
func (r *Repository) PutMeta(res *Resource, meta string) error {
	log := r.resourceLog(res)
	log.Debug("PutMeta")
	start := time.Now()
	err := r.putMeta(res, meta)
	metricsHandle().Observe("put_meta", start, err)
	logOutcome(log, "PutMeta", err)
	return err
}

func (r *Repository) putMeta(res *Resource, meta string) error {
	if err := r.putResource(res); err != nil {
		return err
	}
	pp := r.payloadPath(res)
	data := append([]byte(meta), 0)
	if err := fsutil.BytesToFile(pp, data); err != nil {
		return res.set(newErr(KindIO, "PutMeta", pp, err))
	}
	return nil
}

// PutImage populates columns/rows from img, then stores it via the
// image codec's native MPC-equivalent format (spec §4.5 PutImage).
// passphrase is a per-image encryption secret forwarded to c verbatim
// (spec §6.3's -passphrase); the engine neither stores nor interprets
// it — a distinct concept from the repository's own passkey.
func (r *Repository) PutImage(res *Resource, img *codec.Image, c codec.Codec, passphrase string) error {
	log := r.resourceLog(res)
	log.Debug("PutImage")
	start := time.Now()
	err := r.putImage(res, img, c, passphrase)
	metricsHandle().Observe("put_image", start, err)
	logOutcome(log, "PutImage", err)
	return err
}

func (r *Repository) putImage(res *Resource, img *codec.Image, c codec.Codec, passphrase string) error {
	cols, rows := img.Bounds()
	res.SetSize(uint64(cols), uint64(rows))

	if err := r.putResource(res); err != nil {
		return err
	}
	pp := r.payloadPath(res)
	if err := c.Encode(pp, img, passphrase); err != nil {
		return res.set(newErr(KindIO, "PutImage", pp, err))
	}
	return nil
}

// GetBlob reads a blob resource, preferring a memory-mapped region and
// falling back to a full read when mapping is unsupported (spec §4.5
// GetBlob).
func (r *Repository) GetBlob(res *Resource) ([]byte, error) {
	log := r.resourceLog(res)
	log.Debug("GetBlob")
	start := time.Now()
	data, err := r.getBytes(res, "GetBlob")
	metricsHandle().Observe("get_blob", start, err)
	logOutcome(log, "GetBlob", err)
	return data, err
}

// GetMeta reads a meta resource and returns the string with its
// trailing NUL stripped (spec §4.5 GetMeta). Invalid UTF-8 is logged,
// not rejected, per SPEC_FULL.md §4's supplemented validation note.
func (r *Repository) GetMeta(res *Resource) (string, error) {
	log := r.resourceLog(res)
	log.Debug("GetMeta")
	start := time.Now()
	data, err := r.getBytes(res, "GetMeta")
	metricsHandle().Observe("get_meta", start, err)
	logOutcome(log, "GetMeta", err)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSuffix(string(data), "\x00")
	if !utf8.ValidString(trimmed) {
		log.Warn("GetMeta: invalid UTF-8, returning as-is", "iri", res.iri)
	}
	return trimmed, nil
}

func (r *Repository) getBytes(res *Resource, op string) ([]byte, error) {
	if ok, err := r.getResource(res); !ok {
		if err != nil {
			return nil, err
		}
		return nil, res.set(newErr(KindNotFound, op, res.iri, nil))
	}

	if res.payload != nil {
		res.payload.dispose()
	}

	pp := r.payloadPath(res)
	region, mapped, err := fsutil.MapFile(pp, fsutil.MapRead)
	if err != nil {
		return nil, res.set(newErr(KindIO, op, pp, err))
	}
	if mapped {
		res.payload = mappedPayload(region)
		metricsHandle().MmapHit()
		return res.payload.bytes(), nil
	}

	metricsHandle().MmapFallback()
	f, err := os.Open(pp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, res.set(newErr(KindNotFound, op, pp, nil))
		}
		return nil, res.set(newErr(KindIO, op, pp, err))
	}
	defer f.Close()

	data, err := fsutil.ReadRetryEINTR(f)
	if err != nil {
		return nil, res.set(newErr(KindIO, op, pp, err))
	}
	res.payload = ownedPayload(data)
	return data, nil
}

// GetImage decodes an image resource, optionally applying an extract
// geometry suffix (spec §4.5 GetImage). extract and passphrase are
// delegated to c verbatim; the core never parses or stores either
// (spec §9, §6.3).
func (r *Repository) GetImage(res *Resource, extract string, c codec.Codec, passphrase string) (*codec.Image, error) {
	log := r.resourceLog(res)
	log.Debug("GetImage", "extract", extract)
	start := time.Now()
	img, err := r.getImage(res, extract, c, passphrase)
	metricsHandle().Observe("get_image", start, err)
	logOutcome(log, "GetImage", err)
	return img, err
}

func (r *Repository) getImage(res *Resource, extract string, c codec.Codec, passphrase string) (*codec.Image, error) {
	if ok, err := r.getResource(res); !ok {
		if err != nil {
			return nil, err
		}
		return nil, res.set(newErr(KindNotFound, "GetImage", res.iri, nil))
	}

	pp := r.payloadPath(res)
	img, err := c.Decode(pp, extract, passphrase)
	if err != nil {
		return nil, res.set(newErr(KindIO, "GetImage", pp, err))
	}

	if res.payload != nil {
		res.payload.dispose()
	}
	res.payload = decodedPayload(img)

	cols, rows := img.Bounds()
	res.SetSize(uint64(cols), uint64(rows))
	return img, nil
}

// DeleteResource removes a resource's payload, its sentinel, the
// image codec's sibling cache file (if any), and prunes any now-empty
// ancestor directories beneath the repository root (spec §4.5
// DeleteResource).
func (r *Repository) DeleteResource(res *Resource) error {
	log := r.resourceLog(res)
	log.Debug("DeleteResource")
	start := time.Now()
	err := r.deleteResource(res)
	metricsHandle().Observe("delete_resource", start, err)
	logOutcome(log, "DeleteResource", err)
	return err
}

func (r *Repository) deleteResource(res *Resource) error {
	if ok, err := r.getResource(res); !ok {
		if err != nil {
			return err
		}
		return res.set(newErr(KindNotFound, "DeleteResource", res.iri, nil))
	}

	pp := r.payloadPath(res)
	if err := fsutil.RemoveFile(pp); err != nil {
		return res.set(newErr(KindIO, "DeleteResource", pp, err))
	}

	if res.kind == Image {
		_ = fsutil.RemoveFile(pp + ".cache") // sibling index; absence is not an error
	}

	sp := r.resourceSentinelPath(res)
	if err := fsutil.RemoveFile(sp); err != nil {
		return res.set(newErr(KindIO, "DeleteResource", sp, err))
	}

	r.pruneAncestors(res.iri)
	res.clear()
	return nil
}

// pruneAncestors walks the IRI segments from tail to head, attempting
// to remove each ancestor directory. "Directory not empty" is ignored
// at the fsutil layer (spec §4.5 step 4, §5).
func (r *Repository) pruneAncestors(iri string) {
	segments := fsutil.PathDepth(iri)
	for i := len(segments); i > 0; i-- {
		dir := fsutil.Join(append([]string{r.root}, segments[:i]...)...)
		if err := fsutil.RemoveDir(dir); err != nil {
			return
		}
	}
}

// IsExpired reports whether res's TTL has elapsed (spec §4.5
// IsExpired). A TTL of 0 never expires. If res has not yet been
// populated by GetResource/GetBlob/GetMeta/GetImage, it is looked up
// first; an already-populated res is evaluated in place so callers
// iterating many resources (Expire, the expire subcommand) don't pay
// a redundant lookup per check.
func (r *Repository) IsExpired(res *Resource) (bool, error) {
	if res.timestamp.IsZero() {
		if ok, err := r.GetResource(res); !ok {
			return false, err
		}
	}
	if res.ttl == 0 {
		return false, nil
	}
	return res.timestamp.Add(time.Duration(res.ttl) * time.Second).Before(time.Now()), nil
}

// Expire deletes res if it has expired (spec §4.5 Expire).
func (r *Repository) Expire(res *Resource) error {
	start := time.Now()
	err := r.expire(res)
	metricsHandle().Observe("expire", start, err)
	return err
}

func (r *Repository) expire(res *Resource) error {
	expired, err := r.IsExpired(res)
	if err != nil {
		return err
	}
	if !expired {
		return nil
	}
	return r.DeleteResource(res)
}

// Identify writes one line describing res to w: "IRI [cols x rows]
// human-size D:H:M:S[*] ISO8601-ctime" (spec §4.5 Identify), where
// D:H:M:S breaks the resource's TTL into days/hours/minutes/seconds
// and the trailing "*" marks an expired entry.
func (r *Repository) Identify(res *Resource, w io.Writer) error {
	if ok, err := r.GetResource(res); !ok {
		if err != nil {
			return err
		}
		return res.set(newErr(KindNotFound, "Identify", res.iri, nil))
	}

	expired, _ := r.IsExpired(res)
	marker := ""
	if expired {
		marker = "*"
	}

	size := bytesize.ByteSize(res.extent).String()
	ttl := res.ttl
	days := ttl / 86400
	hours := (ttl % 86400) / 3600
	minutes := (ttl % 3600) / 60
	seconds := ttl % 60

	line := fmt.Sprintf("%s [%dx%d] %s %d:%d:%d:%d%s %s\n",
		res.iri, res.columns, res.rows, size,
		days, hours, minutes, seconds, marker,
		res.timestamp.UTC().Format("2006-01-02T15:04:05Z"))

	_, err := io.WriteString(w, line)
	return err
}

// IdentifyResources matches IterateResources' callback signature for
// the common "list everything under a prefix" case (spec §8 scenario
// S6's "IdentifyResources").
func IdentifyResources(w io.Writer) IterateFunc {
	return func(repo *Repository, res *Resource) (bool, error) {
		if err := repo.Identify(res, w); err != nil {
			return false, err
		}
		return true, nil
	}
}

// DeleteResources is an IterateFunc that deletes every visited
// resource (spec §8 scenario S6).
func DeleteResources() IterateFunc {
	return func(repo *Repository, res *Resource) (bool, error) {
		if err := repo.DeleteResource(res); err != nil {
			return false, err
		}
		return true, nil
	}
}

// IterateFunc is invoked once per resource visited by IterateResources.
// Returning false (or a non-nil error) short-circuits iteration.
type IterateFunc func(repo *Repository, res *Resource) (bool, error)

// IterateResources walks every resource sentinel found beneath
// <root>/<iriPrefix>, invoking cb once per resource (spec §4.5
// IterateResources). Traversal order is directory-natural (readdir
// order); callers must not depend on lexicographic ordering.
func (r *Repository) IterateResources(iriPrefix string, cb IterateFunc) error {
	log := r.log
	if log == nil {
		log = logger.New()
	}
	log.Debug("IterateResources", "prefix", iriPrefix)

	start := time.Now()
	err := r.iterateResources(iriPrefix, cb)
	metricsHandle().Observe("iterate_resources", start, err)
	logOutcome(log, "IterateResources", err)
	return err
}

func (r *Repository) iterateResources(iriPrefix string, cb IterateFunc) error {
	root := fsutil.Join(r.root, iriPrefix)
	worklist := []string{root}

	for len(worklist) > 0 {
		dir := worklist[0]
		worklist = worklist[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // a directory vanishing mid-walk is not fatal (spec §5)
		}

		for _, entry := range entries {
			if entry.Name() == "." || entry.Name() == ".." {
				continue
			}
			full := fsutil.Join(dir, entry.Name())
			if entry.IsDir() {
				worklist = append(worklist, full)
				continue
			}
			if entry.Name() != sentinel.ResourceFileName {
				continue
			}

			iri := strings.TrimPrefix(strings.TrimPrefix(dir, r.root), "/")
			res := AcquireResource(r, iri)
			ok, err := r.getResource(res)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			cont, err := cb(r, res)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
	}
	return nil
}
