package collection

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ArtSize is the fixed square dimension decoded art is resized to.
const ArtSize = 600

// ArtKind tags which case an Art value currently holds.
type ArtKind int

const (
	// ArtUnknown means no art could be found for the album.
	ArtUnknown ArtKind = iota
	// ArtRaw holds the original, undecoded image bytes (the on-disk form).
	ArtRaw
	// ArtDecoded holds a decoded, resized RGBA handle (the in-memory-only form).
	ArtDecoded
)

// Art is a tagged variant over {Unknown; RawBytes; Decoded}. The Decoded
// case is produced from RawBytes at Collection load time and never
// persists: Clone (see ccd) converts it back to RawBytes before a
// Collection is written to disk, so RawBytes and Decoded are never both
// populated in the same value.
type Art struct {
	kind    ArtKind
	raw     []byte
	decoded image.Image
}

// NoArt is the zero value: ArtUnknown.
var NoArt = Art{kind: ArtUnknown}

// NewRawArt wraps undecoded image bytes.
func NewRawArt(raw []byte) Art {
	if len(raw) == 0 {
		return NoArt
	}
	return Art{kind: ArtRaw, raw: raw}
}

// Kind reports which case is populated.
func (a Art) Kind() ArtKind { return a.kind }

// Raw returns the raw bytes for the ArtRaw case, or nil otherwise.
func (a Art) Raw() []byte {
	if a.kind != ArtRaw {
		return nil
	}
	return a.raw
}

// Image returns the decoded handle for the ArtDecoded case, or nil otherwise.
func (a Art) Image() image.Image {
	if a.kind != ArtDecoded {
		return nil
	}
	return a.decoded
}

// Decode turns a RawBytes Art into a Decoded one: decode, resize, and
// square-crop to exactly ArtSize x ArtSize. Unknown art decodes to itself.
func (a Art) Decode() (Art, error) {
	switch a.kind {
	case ArtUnknown:
		return a, nil
	case ArtDecoded:
		return a, nil
	}

	img, err := imaging.Decode(bytes.NewReader(a.raw))
	if err != nil {
		return NoArt, errors.Wrap(err, "could not decode album art")
	}
	img = imaging.Fill(img, ArtSize, ArtSize, imaging.Center, imaging.Lanczos)

	return Art{kind: ArtDecoded, decoded: img}, nil
}

// Undecode converts a Decoded Art back into its RawBytes form (re-encoded
// as JPEG) for persistence. Raw and Unknown art pass through unchanged.
func (a Art) Undecode() (Art, error) {
	if a.kind != ArtDecoded {
		return a, nil
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, a.decoded, imaging.JPEG); err != nil {
		return NoArt, errors.Wrap(err, "could not re-encode album art")
	}
	return Art{kind: ArtRaw, raw: buf.Bytes()}, nil
}

// diskArt is the subset of Art that is allowed to persist: Unknown or Raw,
// never Decoded. It is the gob-visible shape used by internal/persist.
type diskArt struct {
	Kind ArtKind
	Raw  []byte
}

// ToDisk converts an Art value to its on-disk shape. It errors if called on
// a Decoded value that was not first passed through Undecode.
func (a Art) ToDisk() (diskArt, error) {
	if a.kind == ArtDecoded {
		return diskArt{}, errors.New("art: cannot persist a Decoded value directly, call Undecode first")
	}
	return diskArt{Kind: a.kind, Raw: a.raw}, nil
}

// FromDisk reconstructs an Art value from its on-disk shape.
func FromDisk(d diskArt) Art {
	if d.Kind != ArtRaw || len(d.Raw) == 0 {
		return NoArt
	}
	return Art{kind: ArtRaw, raw: d.Raw}
}
