package seqcache

import (
	"image"

	"seqcache/internal/base"
	"seqcache/internal/window"
)

// Re-exported leaf types. Collaborators implement Decoder against these.
type (
	// Decoder is the image decoding capability injected into the cache.
	Decoder = base.Decoder

	// Dimensions is the original width and height of a frame.
	Dimensions = base.Dimensions

	// Metadata is opaque per-frame key/value metadata.
	Metadata = base.Metadata

	// Frame is a decoded pixel buffer at a resolution level.
	Frame = base.Frame

	// Region is a closed interval of frame indices.
	Region = window.Region
)

// Response is the transient result of a Request call. On a miss Img is nil
// and the zero Response is returned; on a hit inside the prefetch region
// Dim and Meta are filled from the frame's descriptor even if the frame
// itself failed to decode.
type Response struct {
	Img  *image.RGBA
	Dim  Dimensions
	Meta Metadata
}

// Ok reports whether the response carries a decoded image.
func (r Response) Ok() bool {
	return r.Img != nil
}
