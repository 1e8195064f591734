package magickcache

import (
	"github.com/oakmere/magickcache/pkg/codec"
	"github.com/oakmere/magickcache/pkg/fsutil"
)

// payloadKind tags which of the three payload representations a
// Resource currently owns, implementing the tagged union spec §9
// calls for instead of the original's manual dual ownership:
//
//	Owned(bytes), Mapped(region, len), Decoded(image-handle)
type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadOwned
	payloadMapped
	payloadDecoded
)

// payload is the tagged union backing every get-path's returned
// handle. Exactly one of owned/mapped/decoded is meaningful at a time,
// selected by kind. Replacing or disposing a payload releases the
// previous flavour's resources (spec §9, §5): mapped regions are
// unmapped, owned buffers are simply dropped for the GC, decoded
// images are handed to the codec's own representation (no explicit
// teardown needed for the standard-library-backed reference codec).
type payload struct {
	kind    payloadKind
	owned   []byte
	mapped  *fsutil.Region
	decoded *codec.Image
}

// bytes returns the payload's byte view, for the owned and mapped
// cases. Decoded image payloads have no byte view; callers must use
// Resource.Image() instead.
func (p *payload) bytes() []byte {
	switch p.kind {
	case payloadOwned:
		return p.owned
	case payloadMapped:
		if p.mapped == nil {
			return nil
		}
		return p.mapped.Bytes()
	default:
		return nil
	}
}

// dispose releases whatever flavour of payload is currently held,
// matching spec §9's "payload handle disposition is driven by kind"
// (here, driven instead by which union arm is populated, which is
// equivalent and simpler to verify).
func (p *payload) dispose() {
	switch p.kind {
	case payloadMapped:
		_ = fsutil.Unmap(p.mapped)
	}
	p.kind = payloadNone
	p.owned = nil
	p.mapped = nil
	p.decoded = nil
}

func ownedPayload(data []byte) *payload {
	return &payload{kind: payloadOwned, owned: data}
}

func mappedPayload(region *fsutil.Region) *payload {
	return &payload{kind: payloadMapped, mapped: region}
}

func decodedPayload(img *codec.Image) *payload {
	return &payload{kind: payloadDecoded, decoded: img}
}
