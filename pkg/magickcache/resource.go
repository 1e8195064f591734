package magickcache

import (
	"strings"
	"time"

	"github.com/oakmere/magickcache/pkg/codec"
	"github.com/oakmere/magickcache/pkg/nonce"
	"github.com/oakmere/magickcache/pkg/sentinel"
)

// ResourceKind enumerates a resource's type, derived from the second
// IRI segment (spec §3 Data Model).
type ResourceKind int

const (
	Undefined ResourceKind = iota
	Blob
	Image
	Meta
	Wild
)

func (k ResourceKind) String() string {
	switch k {
	case Blob:
		return "blob"
	case Image:
		return "image"
	case Meta:
		return "meta"
	case Wild:
		return "*"
	default:
		return "undefined"
	}
}

func kindFromSegment(segment string) (ResourceKind, bool) {
	switch strings.ToLower(segment) {
	case "blob":
		return Blob, true
	case "image":
		return Image, true
	case "meta":
		return Meta, true
	case "*":
		return Wild, true
	default:
		return Undefined, false
	}
}

// Resource is a single logical cache entry addressed by an IRI (spec
// §3 Data Model). A Resource is bound to an already-open Repository at
// Acquire time, lives independently, and must be released (Destroy)
// before its Repository.
type Resource struct {
	repo *Repository

	iri     string
	project string
	typ     string
	kind    ResourceKind

	resourceNonce [sentinel.NonceSize]byte
	id            string // cached; cleared by SetIRI and recomputed on next use

	ttl       uint64
	timestamp time.Time
	extent    int64
	columns   uint64
	rows      uint64
	version   int

	payload *payload

	exceptionSlot
}

// AcquireResource allocates a Resource bound to repo, mints a fresh
// 8-byte resource nonce, records the current API version, and parses
// iri via SetIRI (spec §4.5 Acquire).
func AcquireResource(repo *Repository, iri string) *Resource {
	r := &Resource{
		repo:          repo,
		resourceNonce: nonce.New(),
		version:       APIVersion,
		payload:       &payload{},
	}
	_ = r.SetIRI(iri)
	return r
}

// Destroy releases the resource's payload handle and detaches it from
// its repository. A Resource must not outlive its Repository (spec
// §5); Destroy does not enforce this statically, matching the Go
// ownership model spec §9 recommends in place of the original's magic-
// number liveness check.
func (res *Resource) Destroy() {
	if res.payload != nil {
		res.payload.dispose()
	}
	res.repo = nil
}

// SetIRI splits iri on "/" into project, type, and remainder, and maps
// the type segment to a ResourceKind (spec §4.5 SetIRI). Resetting the IRI
// clears the cached id, which is recomputed on the next operation that
// needs it.
func (res *Resource) SetIRI(iri string) error {
	segments := strings.SplitN(strings.TrimPrefix(iri, "/"), "/", 3)
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return res.set(newErr(KindUnknownKind, "SetIRI", iri, nil))
	}

	kind, ok := kindFromSegment(segments[1])
	if !ok {
		return res.set(newErr(KindUnknownKind, "SetIRI", iri, nil))
	}

	res.iri = strings.TrimSuffix(iri, "/")
	res.project = segments[0]
	res.typ = segments[1]
	res.kind = kind
	res.id = ""
	return nil
}

// GetIRI returns the resource's IRI.
func (res *Resource) GetIRI() string { return res.iri }

// GetType returns the resource's kind.
func (res *Resource) GetType() ResourceKind { return res.kind }

// SetTTL sets the resource's time-to-live in seconds; 0 means never
// expires (spec §3 Data Model).
func (res *Resource) SetTTL(seconds uint64) { res.ttl = seconds }

// GetTTL returns the resource's TTL in seconds.
func (res *Resource) GetTTL() uint64 { return res.ttl }

// SetVersion sets the API version recorded with the resource.
func (res *Resource) SetVersion(v int) { res.version = v }

// GetVersion returns the resource's recorded API version.
func (res *Resource) GetVersion() int { return res.version }

// GetExtent returns the payload size in bytes, populated by the most
// recent GetResource/GetBlob/GetMeta/GetImage call.
func (res *Resource) GetExtent() int64 { return res.extent }

// GetTimestamp returns the resource's creation time (the payload
// file's ctime, spec §3 Data Model).
func (res *Resource) GetTimestamp() time.Time { return res.timestamp }

// GetSize returns the resource's image dimensions (0,0 for non-image
// kinds).
func (res *Resource) GetSize() (columns, rows uint64) { return res.columns, res.rows }

// SetSize sets the resource's image dimensions, used by PutImage
// before laying down the sentinel (spec §4.5 PutImage step 1).
func (res *Resource) SetSize(columns, rows uint64) {
	res.columns = columns
	res.rows = rows
}

// Id returns the resource's content-addressed id, the digest of the
// (IRI, resource-nonce, passkey, repo-nonce) tuple (spec §3 Data
// Model). The id is cached: it is computed here only when no id is
// held, which is the case after SetIRI; a later passkey change on the
// Repository does not clear a cached id.
func (res *Resource) Id() string {
	if res.id == "" {
		res.id = res.computeID(res.repo.passkey)
	}
	return res.id
}

func (res *Resource) computeID(passkey []byte) string {
	return computeResourceID(res.iri, res.resourceNonce, passkey, res.repo.Nonce())
}

// GetException returns the resource's last recorded error, or nil.
func (res *Resource) GetException() *Error { return res.get() }

// ClearException resets the resource's last-error slot.
func (res *Resource) ClearException() { res.clear() }

// Bytes returns the resource's current payload as a byte slice (blob
// or meta kinds). Returns nil for image kinds or before any get has
// been performed.
func (res *Resource) Bytes() []byte {
	if res.payload == nil {
		return nil
	}
	return res.payload.bytes()
}

// Image returns the resource's currently decoded image, or nil if the
// resource is not an image kind or no get has been performed.
func (res *Resource) Image() *codec.Image {
	if res.payload == nil || res.payload.kind != payloadDecoded {
		return nil
	}
	return res.payload.decoded
}
