// glTF 2.0 (JSON) and GLB (binary container) decoding.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/qmuntal/gltf"
)

// glTF format errors.
var (
	ErrInvalidGLTF = errors.New("invalid glTF data")
	ErrEmptyGLTF   = errors.New("empty glTF data")
)

// glbMagic is the first four bytes of a binary glTF container.
const glbMagic = "glTF"

// IsGLB reports whether data starts with the binary glTF header.
func IsGLB(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == glbMagic
}

// ParseGLTF decodes a glTF or GLB document from a byte slice.
// Relative buffer and image URIs are opened through fsys; pass nil for
// self-contained files (GLB or glTF with data: URIs).
func ParseGLTF(data []byte, fsys fs.FS) (*gltf.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyGLTF
	}

	var dec *gltf.Decoder
	if fsys != nil {
		dec = gltf.NewDecoderFS(bytes.NewReader(data), fsys)
	} else {
		dec = gltf.NewDecoder(bytes.NewReader(data))
	}

	doc := new(gltf.Document)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGLTF, err)
	}
	return doc, nil
}

// GLTFImage returns the encoded bytes of image idx when they are stored in a
// buffer view or a data: URI. For external images it returns nil data and the
// relative URI so the caller can fetch it.
func GLTFImage(doc *gltf.Document, idx int) (data []byte, uri string, err error) {
	if idx < 0 || idx >= len(doc.Images) {
		return nil, "", fmt.Errorf("%w: image %d out of range", ErrInvalidGLTF, idx)
	}
	img := doc.Images[idx]

	if img.BufferView != nil {
		bvIdx := *img.BufferView
		if bvIdx < 0 || bvIdx >= len(doc.BufferViews) {
			return nil, "", fmt.Errorf("%w: image %d buffer view %d out of range", ErrInvalidGLTF, idx, bvIdx)
		}
		bv := doc.BufferViews[bvIdx]
		if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
			return nil, "", fmt.Errorf("%w: buffer %d out of range", ErrInvalidGLTF, bv.Buffer)
		}
		buf := doc.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if bv.ByteOffset < 0 || bv.ByteLength < 0 || end < bv.ByteOffset || end > len(buf) {
			return nil, "", fmt.Errorf("%w: image %d exceeds buffer", ErrInvalidGLTF, idx)
		}
		return buf[bv.ByteOffset:end], "", nil
	}

	if img.IsEmbeddedResource() {
		data, err := img.MarshalData()
		if err != nil {
			return nil, "", fmt.Errorf("%w: image %d: %v", ErrInvalidGLTF, idx, err)
		}
		return data, "", nil
	}
	return nil, img.URI, nil
}
